package search

import (
	"fmt"
	"sort"

	"github.com/ruchi-search/ruchi/internal/domain"
)

// scoreEpsilon absorbs floating-point noise when validating score ranges.
const scoreEpsilon = 1e-9

// fuseWeighted merges the semantic and keyword candidate sets into one
// ranked list. Raw scores are min-max normalized within each set first,
// because cosine similarity and BM25 relevance live on incomparable scales.
// A restaurant present in only one set contributes 0 for the missing side.
func fuseWeighted(
	semantic, keyword []domain.Hit,
	semanticWeight, keywordWeight float64,
	topK int,
) ([]domain.Hit, error) {
	if err := checkSemanticScores(semantic); err != nil {
		return nil, err
	}
	if err := checkKeywordScores(keyword); err != nil {
		return nil, err
	}

	semNorm := normalizeMinMax(semantic)
	kwNorm := normalizeMinMax(keyword)

	type fused struct {
		hit   domain.Hit
		score float64
	}

	merged := make(map[string]*fused, len(semantic)+len(keyword))

	for i, h := range semantic {
		merged[h.RestaurantID] = &fused{hit: h, score: semanticWeight * semNorm[i]}
	}

	for i, h := range keyword {
		if existing, ok := merged[h.RestaurantID]; ok {
			existing.score += keywordWeight * kwNorm[i]
			// semantic hit kept for display fields; both carry the same record
		} else {
			merged[h.RestaurantID] = &fused{hit: h, score: keywordWeight * kwNorm[i]}
		}
	}

	results := make([]domain.Hit, 0, len(merged))
	for _, f := range merged {
		h := f.hit
		h.Score = f.score
		results = append(results, h)
	}

	sortHits(results)

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// normalizeMinMax scales scores into [0,1] within one result set. When every
// score is identical (including a single-element set) all members map to 1.0:
// they are all best-in-set, and 0 would erase the set's contribution.
func normalizeMinMax(hits []domain.Hit) []float64 {
	if len(hits) == 0 {
		return nil
	}

	minScore, maxScore := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < minScore {
			minScore = h.Score
		}
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}

	norm := make([]float64, len(hits))
	spread := maxScore - minScore
	for i, h := range hits {
		if spread == 0 {
			norm[i] = 1.0
			continue
		}
		norm[i] = (h.Score - minScore) / spread
	}
	return norm
}

// checkSemanticScores validates that similarity scores are inside [0,1];
// anything else means the distance conversion upstream broke.
func checkSemanticScores(hits []domain.Hit) error {
	for _, h := range hits {
		if h.Score < -scoreEpsilon || h.Score > 1+scoreEpsilon {
			return fmt.Errorf("semantic score %g for %s outside [0,1]: %w",
				h.Score, h.RestaurantID, domain.ErrFusionInconsistency)
		}
	}
	return nil
}

// checkKeywordScores validates that BM25 relevance scores are non-negative.
func checkKeywordScores(hits []domain.Hit) error {
	for _, h := range hits {
		if h.Score < -scoreEpsilon {
			return fmt.Errorf("keyword score %g for %s is negative: %w",
				h.Score, h.RestaurantID, domain.ErrFusionInconsistency)
		}
	}
	return nil
}

// sortHits orders by score descending with restaurant id ascending as the
// tie-break, so equal-scored results always come back in the same order.
func sortHits(hits []domain.Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RestaurantID < hits[j].RestaurantID
	})
}

// dedupeHits removes repeated restaurant ids, keeping the first (highest
// ranked after sorting) occurrence.
func dedupeHits(hits []domain.Hit) []domain.Hit {
	seen := make(map[string]struct{}, len(hits))
	out := hits[:0]
	for _, h := range hits {
		if _, ok := seen[h.RestaurantID]; ok {
			continue
		}
		seen[h.RestaurantID] = struct{}{}
		out = append(out, h)
	}
	return out
}
