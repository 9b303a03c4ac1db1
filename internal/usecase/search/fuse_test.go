package search

import (
	"errors"
	"math"
	"testing"

	"github.com/ruchi-search/ruchi/internal/domain"
)

func hit(id string, score float64) domain.Hit {
	return domain.Hit{
		Restaurant: domain.Restaurant{RestaurantID: id, Name: "r-" + id},
		Score:      score,
	}
}

func TestFuseWeightedFormula(t *testing.T) {
	semantic := []domain.Hit{hit("a", 0.9), hit("b", 0.5), hit("c", 0.1)}
	keyword := []domain.Hit{hit("b", 12.0), hit("d", 4.0), hit("a", 2.0)}

	got, err := fuseWeighted(semantic, keyword, 0.7, 0.3, 10)
	if err != nil {
		t.Fatalf("fuseWeighted: %v", err)
	}

	// Normalized semantic: a=1.0, b=0.5, c=0.0.
	// Normalized keyword:  b=1.0, d=0.2, a=0.0.
	want := map[string]float64{
		"a": 0.7*1.0 + 0.3*0.0,
		"b": 0.7*0.5 + 0.3*1.0,
		"c": 0.0,
		"d": 0.3 * 0.2,
	}

	if len(got) != len(want) {
		t.Fatalf("got %d hits, want %d", len(got), len(want))
	}
	for _, h := range got {
		w, ok := want[h.RestaurantID]
		if !ok {
			t.Fatalf("unexpected restaurant %q in fused results", h.RestaurantID)
		}
		if math.Abs(h.Score-w) > 1e-12 {
			t.Errorf("restaurant %q: score = %g, want %g", h.RestaurantID, h.Score, w)
		}
	}
	if got[0].RestaurantID != "a" {
		t.Errorf("top hit = %q, want %q", got[0].RestaurantID, "a")
	}
}

func TestFuseWeightedMissingSideContributesZero(t *testing.T) {
	semantic := []domain.Hit{hit("only-sem", 0.8), hit("low", 0.2)}

	got, err := fuseWeighted(semantic, nil, 0.7, 0.3, 10)
	if err != nil {
		t.Fatalf("fuseWeighted: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d hits, want 2", len(got))
	}
	if got[0].RestaurantID != "only-sem" || math.Abs(got[0].Score-0.7) > 1e-12 {
		t.Errorf("top hit = %q score %g, want only-sem with 0.7", got[0].RestaurantID, got[0].Score)
	}
	if got[1].Score != 0 {
		t.Errorf("bottom hit score = %g, want 0", got[1].Score)
	}
}

func TestFuseWeightedDegenerateScoresNormalizeToOne(t *testing.T) {
	semantic := []domain.Hit{hit("a", 0.5), hit("b", 0.5)}
	keyword := []domain.Hit{hit("c", 3.0)}

	got, err := fuseWeighted(semantic, keyword, 0.7, 0.3, 10)
	if err != nil {
		t.Fatalf("fuseWeighted: %v", err)
	}

	scores := map[string]float64{}
	for _, h := range got {
		scores[h.RestaurantID] = h.Score
	}
	if scores["a"] != 0.7 || scores["b"] != 0.7 {
		t.Errorf("equal semantic scores should normalize to 1.0 each: got a=%g b=%g", scores["a"], scores["b"])
	}
	if scores["c"] != 0.3 {
		t.Errorf("single keyword hit should normalize to 1.0: got %g", scores["c"])
	}
}

func TestFuseWeightedTieBreakByID(t *testing.T) {
	semantic := []domain.Hit{hit("zeta", 0.5), hit("alpha", 0.5)}

	got, err := fuseWeighted(semantic, nil, 0.7, 0.3, 10)
	if err != nil {
		t.Fatalf("fuseWeighted: %v", err)
	}
	if got[0].RestaurantID != "alpha" || got[1].RestaurantID != "zeta" {
		t.Errorf("tie order = [%q %q], want ascending id", got[0].RestaurantID, got[1].RestaurantID)
	}
}

func TestFuseWeightedTruncatesToTopK(t *testing.T) {
	semantic := []domain.Hit{hit("a", 0.9), hit("b", 0.6), hit("c", 0.3), hit("d", 0.1)}

	got, err := fuseWeighted(semantic, nil, 0.7, 0.3, 2)
	if err != nil {
		t.Fatalf("fuseWeighted: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d hits, want 2", len(got))
	}
	if got[0].RestaurantID != "a" || got[1].RestaurantID != "b" {
		t.Errorf("top 2 = [%q %q], want [a b]", got[0].RestaurantID, got[1].RestaurantID)
	}
}

func TestFuseWeightedOverlapKeepsSemanticRecord(t *testing.T) {
	sem := hit("x", 0.9)
	sem.Name = "Semantic Name"
	kw := hit("x", 5.0)
	kw.Name = "Keyword Name"

	got, err := fuseWeighted([]domain.Hit{sem}, []domain.Hit{kw}, 0.7, 0.3, 10)
	if err != nil {
		t.Fatalf("fuseWeighted: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d hits, want 1 deduplicated hit", len(got))
	}
	if got[0].Name != "Semantic Name" {
		t.Errorf("overlap kept %q, want the semantic-side record", got[0].Name)
	}
	if math.Abs(got[0].Score-1.0) > 1e-12 {
		t.Errorf("overlap score = %g, want 1.0 (both sides best-in-set)", got[0].Score)
	}
}

func TestFuseWeightedRejectsOutOfRangeSemanticScore(t *testing.T) {
	for _, bad := range []float64{-0.2, 1.4} {
		_, err := fuseWeighted([]domain.Hit{hit("a", bad)}, nil, 0.7, 0.3, 10)
		if !errors.Is(err, domain.ErrFusionInconsistency) {
			t.Errorf("semantic score %g: err = %v, want ErrFusionInconsistency", bad, err)
		}
	}
}

func TestFuseWeightedRejectsNegativeKeywordScore(t *testing.T) {
	_, err := fuseWeighted(nil, []domain.Hit{hit("a", -1.0)}, 0.7, 0.3, 10)
	if !errors.Is(err, domain.ErrFusionInconsistency) {
		t.Errorf("err = %v, want ErrFusionInconsistency", err)
	}
}

func TestFuseWeightedEmptyInputs(t *testing.T) {
	got, err := fuseWeighted(nil, nil, 0.7, 0.3, 10)
	if err != nil {
		t.Fatalf("fuseWeighted: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d hits, want 0", len(got))
	}
}

func TestDedupeHitsKeepsFirstOccurrence(t *testing.T) {
	hits := []domain.Hit{hit("a", 0.9), hit("b", 0.5), hit("a", 0.2)}

	got := dedupeHits(hits)
	if len(got) != 2 {
		t.Fatalf("got %d hits, want 2", len(got))
	}
	if got[0].Score != 0.9 {
		t.Errorf("kept score = %g, want the first occurrence 0.9", got[0].Score)
	}
}
