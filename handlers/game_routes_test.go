package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"daily-guess-system/game"
	"daily-guess-system/models"
	"daily-guess-system/services"
	"daily-guess-system/vector"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// canned LLM judge: every question is valid and answered true.
type okJudge struct{}

func (okJudge) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	if bytes.Contains([]byte(userPrompt), []byte("User's Question")) {
		return []byte(`{"valid": true, "question": "Does the country border Spain?"}`), nil
	}
	return []byte(`{"explanation": "Yes, per the text.", "answer": true}`), nil
}

type okEmbedder struct{}

func (okEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1}, nil
}

func (okEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = []float64{0.1}
	}
	return out, nil
}

type noopIndex struct{}

func (noopIndex) EnsureCollection(ctx context.Context, name, scopeField string) error { return nil }
func (noopIndex) Search(ctx context.Context, collection string, queryVector []float64, scopeField, scopeValue string, limit int) ([]vector.ScoredPoint, error) {
	return []vector.ScoredPoint{{ID: "f1", Score: 1, Payload: map[string]interface{}{"text": "It borders Spain."}}}, nil
}
func (noopIndex) UpsertPoints(ctx context.Context, collection string, points []vector.Point) error {
	return nil
}

func testApp(t *testing.T) (*fiber.App, *gorm.DB, *models.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{}, &models.UserScore{}, &models.TargetEntity{}, &models.Fragment{},
		&models.GameDay{}, &models.Round{}, &models.Question{}, &models.Guess{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	user := &models.User{ID: uuid.NewString(), ExternalID: uuid.NewString(), Username: "player"}
	if err := db.Create(user).Error; err != nil {
		t.Fatal(err)
	}
	entity := &models.TargetEntity{ID: uuid.NewString(), Variant: string(game.VariantCountry), Slug: "portugal", Name: "Portugal"}
	if err := db.Create(entity).Error; err != nil {
		t.Fatal(err)
	}

	rounds := services.NewRoundService(db)
	questions := services.NewQuestionService(db, okJudge{}, okEmbedder{}, noopIndex{}, rounds)
	guesses := services.NewGuessService(db, rounds)

	app := fiber.New()
	SetupGameRoutes(app, rounds, questions, guesses)
	return app, db, user
}

func doJSON(t *testing.T, app *fiber.App, method, path, externalID string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if externalID != "" {
		req.Header.Set("X-User-ID", externalID)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, raw
}

func TestSecuredRoutesRequireUserContext(t *testing.T) {
	app, _, _ := testApp(t)

	resp, _ := doJSON(t, app, "GET", "/countrydle/state", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestPublicEntitiesRoute(t *testing.T) {
	app, _, _ := testApp(t)

	resp, raw := doJSON(t, app, "GET", "/countrydle/entities", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}

	var entities []models.TargetEntity
	if err := json.Unmarshal(raw, &entities); err != nil {
		t.Fatal(err)
	}
	if len(entities) != 1 || entities[0].Name != "Portugal" {
		t.Fatalf("unexpected entities %+v", entities)
	}
}

func TestStateCreatesRoundLazily(t *testing.T) {
	app, _, user := testApp(t)

	resp, raw := doJSON(t, app, "GET", "/countrydle/state", user.ExternalID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}

	var view struct {
		State struct {
			RemainingQuestions int `json:"remaining_questions"`
			RemainingGuesses   int `json:"remaining_guesses"`
		} `json:"state"`
		Entity *models.TargetEntity `json:"entity"`
	}
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatal(err)
	}
	if view.State.RemainingQuestions != 10 || view.State.RemainingGuesses != 3 {
		t.Fatalf("unexpected fresh state %+v", view.State)
	}
	if view.Entity != nil {
		t.Fatal("open round must not reveal the target")
	}
}

func TestEndStateBeforeGameOver(t *testing.T) {
	app, _, user := testApp(t)

	resp, raw := doJSON(t, app, "GET", "/countrydle/end/state", user.ExternalID, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
}

func TestQuestionFlow(t *testing.T) {
	app, _, user := testApp(t)

	resp, raw := doJSON(t, app, "POST", "/countrydle/question", user.ExternalID,
		map[string]string{"question": "does it border spain"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}

	var q models.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		t.Fatal(err)
	}
	if !q.Valid || q.Answer == nil || !*q.Answer {
		t.Fatalf("unexpected question %+v", q)
	}
}

func TestQuestionRequiresBody(t *testing.T) {
	app, _, user := testApp(t)

	resp, _ := doJSON(t, app, "POST", "/countrydle/question", user.ExternalID,
		map[string]string{"question": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGuessFlowAndBudgetError(t *testing.T) {
	app, db, user := testApp(t)

	var entity models.TargetEntity
	if err := db.First(&entity, "variant = ?", string(game.VariantCountry)).Error; err != nil {
		t.Fatal(err)
	}

	resp, raw := doJSON(t, app, "POST", "/countrydle/guess", user.ExternalID,
		map[string]interface{}{"guess": "Portugal", "entity_id": entity.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}

	var outcome struct {
		Guess struct {
			Correct bool `json:"correct"`
		} `json:"guess"`
		State struct {
			Won    bool `json:"won"`
			Points int  `json:"points"`
		} `json:"state"`
	}
	if err := json.Unmarshal(raw, &outcome); err != nil {
		t.Fatal(err)
	}
	if !outcome.Guess.Correct || !outcome.State.Won || outcome.State.Points == 0 {
		t.Fatalf("unexpected outcome %s", raw)
	}

	// The finished round refuses further guesses with a budget error.
	resp, _ = doJSON(t, app, "POST", "/countrydle/guess", user.ExternalID,
		map[string]interface{}{"guess": "Portugal", "entity_id": entity.ID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	// And the end state is now available.
	resp, raw = doJSON(t, app, "GET", "/countrydle/end/state", user.ExternalID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end state status = %d: %s", resp.StatusCode, raw)
	}
	var view struct {
		Entity *models.TargetEntity `json:"entity"`
	}
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatal(err)
	}
	if view.Entity == nil || view.Entity.Name != "Portugal" {
		t.Fatalf("finished round must reveal the target: %s", raw)
	}
}

func TestUnknownUserGetsStubRow(t *testing.T) {
	app, db, _ := testApp(t)

	externalID := uuid.NewString()
	resp, _ := doJSON(t, app, "GET", "/countrydle/state", externalID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var user models.User
	if err := db.First(&user, "external_id = ?", externalID).Error; err != nil {
		t.Fatalf("stub user row not created: %v", err)
	}
}
