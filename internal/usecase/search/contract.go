package search

import (
	"context"

	"github.com/ruchi-search/ruchi/internal/domain"
)

// Repository defines the retrieval index contract for search operations.
// A non-empty city is a hard pre-filter in both operations; zero matches
// yield an empty slice, not an error.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, topK int, city string) ([]domain.Hit, error)
	SearchBM25(ctx context.Context, query string, topK int, city string) ([]domain.Hit, error)
}

// IntentExtractor turns a raw query into structured food terms and an
// optional city.
type IntentExtractor interface {
	Extract(ctx context.Context, query string) (domain.Intent, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
