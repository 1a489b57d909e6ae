// services/interfaces.go
package services

import (
	"context"

	"daily-guess-system/vector"
)

// The external collaborators are consumed through narrow interfaces so the
// services can be exercised in tests with stand-ins. Production wiring hands
// in *llm.Client and *vector.Client from main.

// Judge runs one structured LLM call and returns the raw JSON content.
type Judge interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error)
}

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorIndex is the slice of the vector store the game needs: scoped
// search, point upserts and collection bootstrap.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, name, scopeField string) error
	Search(ctx context.Context, collection string, queryVector []float64, scopeField, scopeValue string, limit int) ([]vector.ScoredPoint, error)
	UpsertPoints(ctx context.Context, collection string, points []vector.Point) error
}
