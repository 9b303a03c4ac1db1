package restaurants

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ruchi-search/ruchi/internal/db"
	"github.com/ruchi-search/ruchi/internal/domain"
)

// Hash field names written by the external ingestion job. The vector field
// must match the FT index schema or every KNN query silently misses.
const (
	fieldRestaurantID     = "restaurant_id"
	fieldName             = "name"
	fieldCuisines         = "cuisines"
	fieldLocation         = "location"
	fieldRating           = "rating"
	fieldCostForTwo       = "cost_for_two"
	fieldTextForEmbedding = "text_for_embedding"
	fieldVector           = "embedding"
)

// textSearchFields are the fields BM25 matches against, mirroring the
// reference multi_match over name, cuisines, and location text.
var textSearchFields = []string{fieldName, fieldCuisines, fieldTextForEmbedding}

// returnFields is everything a search hit carries back, vector excluded.
var returnFields = []string{
	fieldRestaurantID, fieldName, fieldCuisines, fieldLocation,
	fieldRating, fieldCostForTwo, fieldTextForEmbedding,
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements the search pipeline's Repository port over the FT index.
type Repo struct {
	store     store
	indexName string
}

// New creates a restaurant search repository for the given index.
func New(s store, indexName string) *Repo {
	return &Repo{store: s, indexName: indexName}
}

// SearchKNN runs a vector similarity search, pre-filtered by city when set.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, topK int, city string) ([]domain.Hit, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            topK,
		City:         city,
		VectorField:  fieldVector,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, indexError("search knn", err)
	}

	return hitsFromResult(sr), nil
}

// SearchBM25 runs a lexical relevance search, pre-filtered by city when set.
func (r *Repo) SearchBM25(ctx context.Context, query string, topK int, city string) ([]domain.Hit, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName,
		Query:        query,
		TopK:         topK,
		City:         city,
		TextFields:   textSearchFields,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, indexError("search bm25", err)
	}

	return hitsFromResult(sr), nil
}

// indexError maps store faults (connectivity, missing index) to
// domain.ErrIndexUnavailable so zero matches stay distinguishable from a
// broken backend.
func indexError(op string, err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%s: index missing: %w", op, domain.ErrIndexUnavailable)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrIndexUnavailable)
}

// hitsFromResult converts db search entries into domain hits.
func hitsFromResult(sr *db.SearchResult) []domain.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	hits := make([]domain.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, domain.Hit{
			Restaurant: restaurantFromFields(entry.Key, entry.Fields),
			Score:      entry.Score,
		})
	}
	return hits
}

func restaurantFromFields(key string, fields map[string]string) domain.Restaurant {
	rest := domain.Restaurant{
		RestaurantID:     fields[fieldRestaurantID],
		Name:             fields[fieldName],
		Cuisines:         fields[fieldCuisines],
		Location:         fields[fieldLocation],
		TextForEmbedding: fields[fieldTextForEmbedding],
	}

	if rest.RestaurantID == "" {
		// Ingestion keys hashes as <prefix>:<id>; fall back to the key suffix.
		if idx := strings.LastIndexByte(key, ':'); idx >= 0 {
			rest.RestaurantID = key[idx+1:]
		} else {
			rest.RestaurantID = key
		}
	}

	if v, err := strconv.ParseFloat(fields[fieldRating], 64); err == nil {
		rest.Rating = v
	}
	if v, err := strconv.Atoi(fields[fieldCostForTwo]); err == nil {
		rest.CostForTwo = v
	}

	return rest
}
