package restaurants

import (
	"context"
	"errors"
	"testing"

	"github.com/ruchi-search/ruchi/internal/db"
	"github.com/ruchi-search/ruchi/internal/domain"
)

type mockStore struct {
	knnResult  *db.SearchResult
	knnErr     error
	bm25Result *db.SearchResult
	bm25Err    error
	lastKNN    *db.KNNQuery
	lastText   *db.TextQuery
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastKNN = q
	return m.knnResult, m.knnErr
}

func (m *mockStore) SearchBM25(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.lastText = q
	return m.bm25Result, m.bm25Err
}

func sampleEntry() db.SearchEntry {
	return db.SearchEntry{
		Key:   "restaurants:r-42",
		Score: 0.87,
		Fields: map[string]string{
			"restaurant_id":      "r-42",
			"name":               "Saravana Bhavan",
			"cuisines":           "South Indian",
			"location":           "Chennai",
			"rating":             "4.5",
			"cost_for_two":       "400",
			"text_for_embedding": "South Indian tiffin idli dosa filter coffee",
		},
	}
}

func TestSearchKNN_MapsHits(t *testing.T) {
	store := &mockStore{knnResult: &db.SearchResult{Total: 1, Entries: []db.SearchEntry{sampleEntry()}}}
	repo := New(store, "restaurants_idx")

	hits, err := repo.SearchKNN(context.Background(), []float32{0.1, 0.2}, 10, "Chennai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}

	h := hits[0]
	if h.RestaurantID != "r-42" || h.Name != "Saravana Bhavan" || h.Location != "Chennai" {
		t.Errorf("unexpected hit: %+v", h)
	}
	if h.Rating != 4.5 || h.CostForTwo != 400 {
		t.Errorf("numeric fields not parsed: rating=%v cost=%d", h.Rating, h.CostForTwo)
	}
	if h.Score != 0.87 {
		t.Errorf("unexpected score: %v", h.Score)
	}

	if store.lastKNN.IndexName != "restaurants_idx" {
		t.Errorf("unexpected index: %q", store.lastKNN.IndexName)
	}
	if store.lastKNN.City != "Chennai" {
		t.Errorf("city filter not forwarded: %q", store.lastKNN.City)
	}
	if store.lastKNN.VectorField != "embedding" {
		t.Errorf("unexpected vector field: %q", store.lastKNN.VectorField)
	}
}

func TestSearchBM25_MapsHits(t *testing.T) {
	store := &mockStore{bm25Result: &db.SearchResult{Total: 1, Entries: []db.SearchEntry{sampleEntry()}}}
	repo := New(store, "restaurants_idx")

	hits, err := repo.SearchBM25(context.Background(), "idli dosa", 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if store.lastText.City != "" {
		t.Errorf("unexpected city filter: %q", store.lastText.City)
	}
	if store.lastText.Query != "idli dosa" {
		t.Errorf("raw query not forwarded: %q", store.lastText.Query)
	}
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	store := &mockStore{
		knnResult:  &db.SearchResult{},
		bm25Result: &db.SearchResult{},
	}
	repo := New(store, "restaurants_idx")

	hits, err := repo.SearchKNN(context.Background(), []float32{0.1}, 10, "Atlantis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected empty hits, got %d", len(hits))
	}

	hits, err = repo.SearchBM25(context.Background(), "chai", 10, "Atlantis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected empty hits, got %d", len(hits))
	}
}

func TestSearch_StoreFaultsMapToIndexUnavailable(t *testing.T) {
	store := &mockStore{
		knnErr:  db.ErrIndexNotFound,
		bm25Err: &db.Error{Op: db.OpSearch, Err: errors.New("connection refused")},
	}
	repo := New(store, "restaurants_idx")

	_, err := repo.SearchKNN(context.Background(), []float32{0.1}, 10, "")
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable for missing index, got %v", err)
	}

	_, err = repo.SearchBM25(context.Background(), "chai", 10, "")
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable for connectivity fault, got %v", err)
	}
}

func TestRestaurantFromFields_KeyFallback(t *testing.T) {
	fields := map[string]string{"name": "Chai Point"}
	rest := restaurantFromFields("restaurants:r-7", fields)
	if rest.RestaurantID != "r-7" {
		t.Errorf("expected id from key suffix, got %q", rest.RestaurantID)
	}
}
