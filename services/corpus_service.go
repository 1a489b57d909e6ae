// services/corpus_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"daily-guess-system/game"
	"daily-guess-system/models"
	"daily-guess-system/vector"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// CorpusService manages the guessable entities and their reference-text
// corpus: entity creation, document ingestion (split → embed → index) and
// vector collection bootstrap. This is the admin-facing replacement for the
// old standalone population scripts.
type CorpusService struct {
	DB       *gorm.DB
	Embedder Embedder
	Index    VectorIndex

	titler cases.Caser
}

func NewCorpusService(db *gorm.DB, embedder Embedder, index VectorIndex) *CorpusService {
	return &CorpusService{
		DB:       db,
		Embedder: embedder,
		Index:    index,
		titler:   cases.Title(language.English),
	}
}

// EnsureCollections bootstraps every variant's fragment and question
// collections, with the scope-field payload index. Called once on startup.
func (s *CorpusService) EnsureCollections(ctx context.Context) error {
	for _, desc := range game.All() {
		if err := s.Index.EnsureCollection(ctx, desc.Collection, desc.ScopeField); err != nil {
			return err
		}
		if err := s.Index.EnsureCollection(ctx, desc.QuestionCollection, desc.ScopeField); err != nil {
			return err
		}
	}
	return nil
}

// CreateEntity registers one guessable entity for a variant. The display
// name is title-cased; the slug is the ascii-folded lookup key ("Łódzkie"
// → "lodzkie") used for free-text guess resolution. Idempotent on
// (variant, slug) — re-creating returns the existing row.
func (s *CorpusService) CreateEntity(desc game.Descriptor, name, officialName string) (*models.TargetEntity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("entity name is required")
	}

	key := slug.Make(unidecode.Unidecode(name))

	var existing models.TargetEntity
	err := s.DB.Where("variant = ? AND slug = ?", string(desc.Variant), key).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity := models.TargetEntity{
		ID:           uuid.NewString(),
		Variant:      string(desc.Variant),
		Slug:         key,
		Name:         s.titler.String(name),
		OfficialName: strings.TrimSpace(officialName),
	}
	if err := s.DB.Create(&entity).Error; err != nil {
		return nil, err
	}

	log.Printf("📚 Registered %s entity: %s (%s)", desc.Variant, entity.Name, entity.Slug)
	return &entity, nil
}

// IngestDocument splits a reference-text document into fragments, stores
// them, embeds them in one batch and upserts them into the variant's
// collection with the entity id in the payload. Returns the fragment count.
// Re-ingesting replaces the entity's previous corpus.
func (s *CorpusService) IngestDocument(ctx context.Context, desc game.Descriptor, entityID, content string) (int, error) {
	var entity models.TargetEntity
	if err := s.DB.Where("id = ? AND variant = ?", entityID, string(desc.Variant)).
		First(&entity).Error; err != nil {
		return 0, fmt.Errorf("entity %s not found for %s: %w", entityID, desc.Variant, err)
	}

	chunks := vector.SplitDocument(content)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document is empty")
	}

	vectors, err := s.Embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, err
	}

	fragments := make([]models.Fragment, len(chunks))
	points := make([]vector.Point, len(chunks))
	for i, chunk := range chunks {
		fragments[i] = models.Fragment{
			ID:       uuid.NewString(),
			EntityID: entity.ID,
			Position: i,
			Text:     chunk,
		}
		points[i] = vector.Point{
			ID:     fragments[i].ID,
			Vector: vectors[i],
			Payload: map[string]interface{}{
				desc.ScopeField: entity.ID,
				"text":          chunk,
				"position":      i,
			},
		}
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_id = ?", entity.ID).
			Delete(&models.Fragment{}).Error; err != nil {
			return err
		}
		return tx.Create(&fragments).Error
	})
	if err != nil {
		return 0, err
	}

	if err := s.Index.UpsertPoints(ctx, desc.Collection, points); err != nil {
		return 0, err
	}

	log.Printf("📚 Ingested %d fragments for %s %s", len(chunks), desc.Variant, entity.Name)
	return len(chunks), nil
}
