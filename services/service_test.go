package services

import (
	"context"
	"testing"

	"daily-guess-system/game"
	"daily-guess-system/models"
	"daily-guess-system/vector"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// A fresh connection to ":memory:" is a fresh database; pin the pool to
	// one connection so every query sees the same one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserScore{},
		&models.TargetEntity{},
		&models.Fragment{},
		&models.GameDay{},
		&models.Round{},
		&models.Question{},
		&models.Guess{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:         uuid.NewString(),
		ExternalID: uuid.NewString(),
		Username:   "tester",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedEntity(t *testing.T, db *gorm.DB, variant, slugKey, name string) *models.TargetEntity {
	t.Helper()
	entity := &models.TargetEntity{
		ID:      uuid.NewString(),
		Variant: variant,
		Slug:    slugKey,
		Name:    name,
	}
	if err := db.Create(entity).Error; err != nil {
		t.Fatalf("seed entity: %v", err)
	}
	return entity
}

// pinDay fixes today's target for a variant so tests are not at the mercy
// of the random draw.
func pinDay(t *testing.T, db *gorm.DB, rounds *RoundService, desc game.Descriptor, entityID string) {
	t.Helper()
	day := &models.GameDay{
		ID:       uuid.NewString(),
		Variant:  string(desc.Variant),
		Date:     rounds.Today(),
		EntityID: entityID,
	}
	if err := db.Create(day).Error; err != nil {
		t.Fatalf("pin day: %v", err)
	}
}

// stubJudge replays canned JSON responses in order.
type stubJudge struct {
	responses []string
	err       error
	calls     int
}

func (j *stubJudge) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	j.calls++
	if j.err != nil {
		return nil, j.err
	}
	if len(j.responses) == 0 {
		return nil, context.Canceled
	}
	next := j.responses[0]
	j.responses = j.responses[1:]
	return []byte(next), nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

// stubIndex records every call and serves canned search hits.
type stubIndex struct {
	collections []string
	hits        []vector.ScoredPoint

	searchedCollection string
	searchedScopeField string
	searchedScopeValue string

	upserts map[string][]vector.Point
}

func newStubIndex() *stubIndex {
	return &stubIndex{upserts: map[string][]vector.Point{}}
}

func (s *stubIndex) EnsureCollection(ctx context.Context, name, scopeField string) error {
	s.collections = append(s.collections, name)
	return nil
}

func (s *stubIndex) Search(ctx context.Context, collection string, queryVector []float64, scopeField, scopeValue string, limit int) ([]vector.ScoredPoint, error) {
	s.searchedCollection = collection
	s.searchedScopeField = scopeField
	s.searchedScopeValue = scopeValue
	return s.hits, nil
}

func (s *stubIndex) UpsertPoints(ctx context.Context, collection string, points []vector.Point) error {
	s.upserts[collection] = append(s.upserts[collection], points...)
	return nil
}
