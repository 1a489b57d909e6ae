// services/guess_service.go
package services

import (
	"fmt"

	"daily-guess-system/game"
	"daily-guess-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// GuessService evaluates guesses and drives the terminal round transition.
// Correctness is a deterministic id equality check against the day's target;
// no model call is involved.
type GuessService struct {
	DB     *gorm.DB
	Rounds *RoundService
}

func NewGuessService(db *gorm.DB, rounds *RoundService) *GuessService {
	return &GuessService{DB: db, Rounds: rounds}
}

// GuessOutcome is what the handler returns to the player: the recorded
// guess plus the round as it stands after the transition.
type GuessOutcome struct {
	Guess *models.Guess `json:"guess"`
	Round *models.Round `json:"state"`
}

// SubmitGuess records one guess and advances the round. A correct guess
// wins immediately; an incorrect final guess loses. The terminal transition,
// scoring and ledger update all commit in one transaction on the locked
// round row, so a concurrent last guess gets ErrBudgetExceeded instead of a
// double spend, and scoring can never run twice.
func (s *GuessService) SubmitGuess(user *models.User, desc game.Descriptor, guessText string, entityID *string) (*GuessOutcome, error) {
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
	if !rules.CanMakeGuess(state) {
		return nil, game.ErrBudgetExceeded
	}

	resolvedID := entityID
	if resolvedID == nil {
		resolvedID = s.resolveBySlug(desc, guessText)
	}

	isCorrect := resolvedID != nil && *resolvedID == day.EntityID

	guess := &models.Guess{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		DayID:    day.ID,
		Guess:    guessText,
		EntityID: resolvedID,
		Correct:  isCorrect,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var locked models.Round
		if err := lockForUpdate(tx).
			Where("id = ?", round.ID).First(&locked).Error; err != nil {
			return err
		}

		lockedState := game.Derive(desc.Config, locked.RemainingQuestions, locked.RemainingGuesses, locked.Won, locked.IsGameOver)
		if !rules.CanMakeGuess(lockedState) {
			return fmt.Errorf("%w: %w", game.ErrBudgetExceeded, game.ErrConcurrentModification)
		}

		newState, err := rules.ProcessGuess(lockedState, isCorrect)
		if err != nil {
			return err
		}

		if err := tx.Create(guess).Error; err != nil {
			return err
		}

		locked.RemainingGuesses = desc.Config.MaxGuesses - newState.GuessesUsed
		locked.GuessesMade++
		locked.Won = newState.IsWon
		locked.IsGameOver = newState.IsGameOver()

		if locked.IsGameOver {
			// Scoring happens exactly here, once: a lost round keeps 0.
			if locked.Won {
				locked.Points = desc.Scoring.Points(locked.RemainingQuestions, locked.RemainingGuesses)
			}
			if err := s.Rounds.ApplyResult(tx, locked.UserID, locked.Won, locked.Points); err != nil {
				return err
			}
		}

		if err := tx.Save(&locked).Error; err != nil {
			return err
		}

		*round = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &GuessOutcome{Guess: guess, Round: round}, nil
}

// resolveBySlug maps free text onto an entity by exact ascii-folded slug
// match ("Łódzkie" and "lodzkie" both resolve). Anything fuzzier is the
// client's job — it has the entity list.
func (s *GuessService) resolveBySlug(desc game.Descriptor, guessText string) *string {
	key := slug.Make(guessText)
	if key == "" {
		return nil
	}

	var entity models.TargetEntity
	if err := s.DB.Where("variant = ? AND slug = ?", string(desc.Variant), key).
		First(&entity).Error; err != nil {
		return nil
	}
	return &entity.ID
}
