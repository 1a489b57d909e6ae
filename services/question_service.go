// services/question_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"daily-guess-system/game"
	"daily-guess-system/models"
	"daily-guess-system/vector"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const searchLimit = 5

// QuestionService runs the retrieval-grounded question protocol: normalize
// the player's input, retrieve grounding fragments scoped to the day's
// target, have the model answer against them, persist the record and spend
// one question from the budget.
type QuestionService struct {
	DB       *gorm.DB
	Judge    Judge
	Embedder Embedder
	Index    VectorIndex
	Rounds   *RoundService
}

func NewQuestionService(db *gorm.DB, judge Judge, embedder Embedder, index VectorIndex, rounds *RoundService) *QuestionService {
	return &QuestionService{
		DB:       db,
		Judge:    judge,
		Embedder: embedder,
		Index:    index,
		Rounds:   rounds,
	}
}

// enhancedQuestion is the stage-1 judge output shape.
type enhancedQuestion struct {
	Valid       bool    `json:"valid"`
	Question    *string `json:"question"`
	Explanation *string `json:"explanation"`
}

// groundedAnswer is the stage-2 judge output shape. Answer stays nil for
// "cannot determine" — a deliberate outcome, preserved end to end.
type groundedAnswer struct {
	Explanation string `json:"explanation"`
	Answer      *bool  `json:"answer"`
}

// SubmitQuestion runs the whole protocol for one player question. All
// network calls happen before the transaction; if any of them fails the
// request aborts with nothing written. The budget is re-validated under a
// row lock at commit time, so two concurrent submissions cannot both spend
// the last question.
func (s *QuestionService) SubmitQuestion(ctx context.Context, user *models.User, desc game.Descriptor, text string) (*models.Question, error) {
	day, err := s.Rounds.GetOrCreateDay(desc, s.Rounds.Today())
	if err != nil {
		return nil, err
	}
	round, err := s.Rounds.GetOrCreateRound(user, day, desc)
	if err != nil {
		return nil, err
	}

	rules := desc.Rules()
	state := game.Derive(desc.Config, round.RemainingQuestions, round.RemainingGuesses, round.Won, round.IsGameOver)
	if !rules.CanAskQuestion(state) {
		return nil, game.ErrBudgetExceeded
	}

	enhanced, err := s.enhance(ctx, desc, text)
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		DayID:            day.ID,
		OriginalQuestion: text,
		Valid:            enhanced.Valid,
		Question:         enhanced.Question,
		Explanation:      enhanced.Explanation,
	}

	var questionVector []float64
	if enhanced.Valid {
		answer, ctxText, vec, err := s.answer(ctx, desc, day, *enhanced.Question)
		if err != nil {
			return nil, err
		}
		question.Answer = answer.Answer
		question.Explanation = &answer.Explanation
		question.Context = &ctxText
		questionVector = vec
	}

	if err := s.commit(question, round, desc); err != nil {
		return nil, err
	}

	// Index the answered question for later reuse. Best effort: the record
	// is already committed, a missing index entry is not worth failing the
	// player's request over.
	if enhanced.Valid && questionVector != nil {
		if err := s.Index.UpsertPoints(ctx, desc.QuestionCollection, []vector.Point{{
			ID:     question.ID,
			Vector: questionVector,
			Payload: map[string]interface{}{
				desc.ScopeField: day.EntityID,
				"question_text": *question.Question,
				"answer":        question.Answer,
				"explanation":   question.Explanation,
			},
		}}); err != nil {
			log.Printf("⚠️ Failed to index question %s into %s: %v", question.ID, desc.QuestionCollection, err)
		}
	}

	return question, nil
}

// enhance is the stage-1 judge call: validity check plus normalization of
// deictic phrasing before retrieval.
func (s *QuestionService) enhance(ctx context.Context, desc game.Descriptor, text string) (*enhancedQuestion, error) {
	raw, err := s.Judge.CompleteJSON(ctx, desc.EnhanceSystemPrompt(), game.EnhanceUserPrompt(text))
	if err != nil {
		return nil, err
	}

	var enhanced enhancedQuestion
	if err := json.Unmarshal(raw, &enhanced); err != nil {
		log.Printf("⚠️ [JUDGE] unparseable enhance response: %s", string(raw))
		return nil, fmt.Errorf("%w: enhance stage: %v", game.ErrMalformedJudgeResponse, err)
	}
	if enhanced.Valid && (enhanced.Question == nil || *enhanced.Question == "") {
		log.Printf("⚠️ [JUDGE] valid enhance response without a question: %s", string(raw))
		return nil, fmt.Errorf("%w: enhance stage returned valid=true without a question", game.ErrMalformedJudgeResponse)
	}

	return &enhanced, nil
}

// answer embeds the normalized question, retrieves fragments scoped to the
// day's target and runs the stage-2 grounded judge call.
func (s *QuestionService) answer(ctx context.Context, desc game.Descriptor, day *models.GameDay, question string) (*groundedAnswer, string, []float64, error) {
	vec, err := s.Embedder.Embed(ctx, question)
	if err != nil {
		return nil, "", nil, err
	}

	hits, err := s.Index.Search(ctx, desc.Collection, vec, desc.ScopeField, day.EntityID, searchLimit)
	if err != nil {
		return nil, "", nil, err
	}

	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		if t := hit.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	ctxText := strings.Join(texts, game.FragmentSeparator)

	raw, err := s.Judge.CompleteJSON(ctx,
		desc.AnswerSystemPrompt(day.Entity.Name, ctxText),
		game.AnswerUserPrompt(question),
	)
	if err != nil {
		return nil, "", nil, err
	}

	var answer groundedAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		log.Printf("⚠️ [JUDGE] unparseable answer response: %s", string(raw))
		return nil, "", nil, fmt.Errorf("%w: answer stage: %v", game.ErrMalformedJudgeResponse, err)
	}

	return &answer, ctxText, vec, nil
}

// commit persists the question record and spends one question from the
// budget, re-validating it on the locked row. A concurrent submission that
// got there first surfaces as ErrBudgetExceeded via ErrConcurrentModification.
func (s *QuestionService) commit(question *models.Question, round *models.Round, desc game.Descriptor) error {
	rules := desc.Rules()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var locked models.Round
		if err := lockForUpdate(tx).
			Where("id = ?", round.ID).First(&locked).Error; err != nil {
			return err
		}

		state := game.Derive(desc.Config, locked.RemainingQuestions, locked.RemainingGuesses, locked.Won, locked.IsGameOver)
		if !rules.CanAskQuestion(state) {
			return fmt.Errorf("%w: %w", game.ErrBudgetExceeded, game.ErrConcurrentModification)
		}

		newState, err := rules.ProcessQuestion(state)
		if err != nil {
			return err
		}

		if err := tx.Create(question).Error; err != nil {
			return err
		}

		locked.RemainingQuestions = desc.Config.MaxQuestions - newState.QuestionsUsed
		locked.QuestionsAsked++
		if err := tx.Save(&locked).Error; err != nil {
			return err
		}

		*round = locked
		return nil
	})
}
