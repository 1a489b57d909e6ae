package services

import (
	"context"
	"errors"
	"testing"

	"daily-guess-system/game"
	"daily-guess-system/models"
	"daily-guess-system/vector"

	"gorm.io/gorm"
)

func questionFixture(t *testing.T) (*QuestionService, *models.User, *models.TargetEntity, *stubJudge, *stubIndex, *gorm.DB) {
	t.Helper()

	db := testDB(t)
	user := seedUser(t, db)
	entity := seedEntity(t, db, string(game.VariantCountry), "portugal", "Portugal")

	judge := &stubJudge{}
	index := newStubIndex()
	rounds := NewRoundService(db)
	svc := NewQuestionService(db, judge, stubEmbedder{}, index, rounds)

	return svc, user, entity, judge, index, db
}

func mustDesc(t *testing.T, v game.Variant) game.Descriptor {
	t.Helper()
	desc, ok := game.Lookup(v)
	if !ok {
		t.Fatalf("variant %q not registered", v)
	}
	return desc
}

func TestSubmitQuestionGroundedAnswer(t *testing.T) {
	svc, user, entity, judge, index, _ := questionFixture(t)
	desc := mustDesc(t, game.VariantCountry)

	judge.responses = []string{
		`{"valid": true, "question": "Does the country border Spain?"}`,
		`{"explanation": "The text mentions the border.", "answer": true}`,
	}
	index.hits = []vector.ScoredPoint{
		{ID: "f1", Score: 0.9, Payload: map[string]interface{}{"text": "It borders Spain to the east."}},
	}

	q, err := svc.SubmitQuestion(context.Background(), user, desc, "does it border spain")
	if err != nil {
		t.Fatal(err)
	}

	if !q.Valid || q.Question == nil || *q.Question != "Does the country border Spain?" {
		t.Fatalf("unexpected question record %+v", q)
	}
	if q.Answer == nil || !*q.Answer {
		t.Fatalf("expected answer true, got %v", q.Answer)
	}

	if index.searchedCollection != desc.Collection || index.searchedScopeField != desc.ScopeField {
		t.Fatalf("search not scoped: %s/%s", index.searchedCollection, index.searchedScopeField)
	}
	if index.searchedScopeValue != entity.ID {
		t.Fatalf("search scoped to %q, want target %q", index.searchedScopeValue, entity.ID)
	}

	// The answered question gets indexed for reuse, scoped to the target.
	points := index.upserts[desc.QuestionCollection]
	if len(points) != 1 {
		t.Fatalf("expected 1 indexed question, got %d", len(points))
	}
	if points[0].Payload[desc.ScopeField] != entity.ID {
		t.Fatalf("indexed question not scoped to target: %v", points[0].Payload)
	}

	round, err := svc.Rounds.GetOrCreateRound(user, mustToday(t, svc.Rounds, desc), desc)
	if err != nil {
		t.Fatal(err)
	}
	if round.RemainingQuestions != desc.Config.MaxQuestions-1 || round.QuestionsAsked != 1 {
		t.Fatalf("budget not spent: %+v", round)
	}
}

func mustToday(t *testing.T, rounds *RoundService, desc game.Descriptor) *models.GameDay {
	t.Helper()
	day, err := rounds.GetOrCreateDay(desc, rounds.Today())
	if err != nil {
		t.Fatal(err)
	}
	return day
}

func TestInvalidQuestionStillSpendsBudget(t *testing.T) {
	svc, user, _, judge, index, _ := questionFixture(t)
	desc := mustDesc(t, game.VariantCountry)

	judge.responses = []string{
		`{"valid": false, "explanation": "Not a yes/no question."}`,
	}

	q, err := svc.SubmitQuestion(context.Background(), user, desc, "what is the capital?")
	if err != nil {
		t.Fatal(err)
	}

	if q.Valid {
		t.Fatal("question should be invalid")
	}
	if q.Answer != nil {
		t.Fatalf("invalid question must have no answer, got %v", *q.Answer)
	}
	if judge.calls != 1 {
		t.Fatalf("answer stage must be skipped for invalid questions, judge called %d times", judge.calls)
	}
	if len(index.upserts) != 0 {
		t.Fatal("invalid question must not be indexed")
	}

	round, _ := svc.Rounds.GetOrCreateRound(user, mustToday(t, svc.Rounds, desc), desc)
	if round.RemainingQuestions != desc.Config.MaxQuestions-1 {
		t.Fatalf("invalid question must still spend budget: %+v", round)
	}
}

func TestNullAnswerPreserved(t *testing.T) {
	svc, user, _, judge, _, db := questionFixture(t)
	desc := mustDesc(t, game.VariantCountry)

	judge.responses = []string{
		`{"valid": true, "question": "Is the national dish spicy?"}`,
		`{"explanation": "The reference text does not say.", "answer": null}`,
	}

	q, err := svc.SubmitQuestion(context.Background(), user, desc, "is the food spicy")
	if err != nil {
		t.Fatal(err)
	}
	if q.Answer != nil {
		t.Fatalf("unknown answer must stay nil, got %v", *q.Answer)
	}

	var stored models.Question
	if err := db.First(&stored, "id = ?", q.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Answer != nil {
		t.Fatalf("nil answer not preserved in storage: %v", *stored.Answer)
	}
}

func TestQuestionBudgetExhausted(t *testing.T) {
	svc, user, _, judge, _, db := questionFixture(t)
	desc := mustDesc(t, game.VariantCountry)

	day := mustToday(t, svc.Rounds, desc)
	round, err := svc.Rounds.GetOrCreateRound(user, day, desc)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Model(round).Update("remaining_questions", 0).Error; err != nil {
		t.Fatal(err)
	}

	_, err = svc.SubmitQuestion(context.Background(), user, desc, "one more?")
	if !errors.Is(err, game.ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if judge.calls != 0 {
		t.Fatal("exhausted budget must be rejected before any judge call")
	}
}

func TestMalformedEnhanceResponse(t *testing.T) {
	svc, user, _, judge, _, db := questionFixture(t)
	desc := mustDesc(t, game.VariantCountry)

	judge.responses = []string{`not json at all`}

	_, err := svc.SubmitQuestion(context.Background(), user, desc, "does it border spain")
	if !errors.Is(err, game.ErrMalformedJudgeResponse) {
		t.Fatalf("expected ErrMalformedJudgeResponse, got %v", err)
	}

	// Nothing persisted, nothing spent.
	var count int64
	db.Model(&models.Question{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed question was persisted (%d rows)", count)
	}
	round, _ := svc.Rounds.GetOrCreateRound(user, mustToday(t, svc.Rounds, desc), desc)
	if round.RemainingQuestions != desc.Config.MaxQuestions {
		t.Fatalf("failed question spent budget: %+v", round)
	}
}

func TestValidWithoutQuestionIsMalformed(t *testing.T) {
	svc, user, _, judge, _, _ := questionFixture(t)
	desc := mustDesc(t, game.VariantCountry)

	judge.responses = []string{`{"valid": true}`}

	_, err := svc.SubmitQuestion(context.Background(), user, desc, "border spain?")
	if !errors.Is(err, game.ErrMalformedJudgeResponse) {
		t.Fatalf("expected ErrMalformedJudgeResponse, got %v", err)
	}
}
