package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ruchi-search/ruchi/internal/domain"
	"github.com/ruchi-search/ruchi/internal/domain/search/mode"
	"github.com/ruchi-search/ruchi/internal/domain/search/request"
	logpkg "github.com/ruchi-search/ruchi/internal/logger"
	"github.com/ruchi-search/ruchi/internal/metrics"
)

// Config holds the pipeline's process-wide, read-only settings.
type Config struct {
	SemanticWeight  float64
	KeywordWeight   float64
	MaxTopK         int
	OverfetchFactor int
	CallTimeout     time.Duration
}

// Service is the query pipeline. Stateless across requests: every Search
// call derives everything from the request and the injected collaborators,
// so identical queries against an unchanged index rank identically.
type Service struct {
	repo   Repository
	intent IntentExtractor
	embed  Embedder
	cfg    Config
}

// Comparison holds the semantic and keyword result sets unmerged, for
// side-by-side presentation.
type Comparison struct {
	Semantic []domain.Hit
	Keyword  []domain.Hit
}

// New creates a search pipeline service.
func New(repo Repository, intent IntentExtractor, embed Embedder, cfg Config) *Service {
	return &Service{repo: repo, intent: intent, embed: embed, cfg: cfg}
}

// NewRequest validates raw transport parameters against the configured
// limits. Validation happens before any external call is made.
func (s *Service) NewRequest(query string, m mode.Mode, topK int) (request.Request, error) {
	return request.New(query, m, topK, s.cfg.MaxTopK)
}

// Search executes the pipeline for semantic, keyword, or hybrid mode and
// returns a ranked, deduplicated list of at most req.TopK() hits.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]domain.Hit, error) {
	var hits []domain.Hit
	var err error

	switch req.Mode() {
	case mode.Semantic:
		hits, err = s.searchSemantic(ctx, req)
	case mode.Keyword:
		hits, err = s.searchKeyword(ctx, req)
	case mode.Hybrid:
		hits, err = s.searchHybrid(ctx, req)
	default:
		err = fmt.Errorf("%w: mode %q is not a ranking mode", domain.ErrInvalidQuery, req.Mode())
	}

	recordSearch(req.Mode(), err)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Compare runs the semantic and keyword retrievals independently and
// returns both full result sets unmerged.
func (s *Service) Compare(ctx context.Context, req *request.Request) (Comparison, error) {
	intent, err := s.extractIntent(ctx, req.Query())
	if err != nil {
		recordSearch(mode.Compare, err)
		return Comparison{}, err
	}

	var cmp Comparison
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hits, err := s.retrieveSemantic(gctx, intent, req.TopK())
		if err != nil {
			return err
		}
		cmp.Semantic = hits
		return nil
	})

	g.Go(func() error {
		hits, err := s.retrieveKeyword(gctx, req.Query(), intent.Location, req.TopK())
		if err != nil {
			return err
		}
		cmp.Keyword = hits
		return nil
	})

	err = g.Wait()
	recordSearch(mode.Compare, err)
	if err != nil {
		return Comparison{}, err
	}
	return cmp, nil
}

// searchSemantic embeds the extracted food terms and ranks by vector
// similarity, pre-filtered by the extracted city.
func (s *Service) searchSemantic(ctx context.Context, req *request.Request) ([]domain.Hit, error) {
	intent, err := s.extractIntent(ctx, req.Query())
	if err != nil {
		return nil, err
	}

	hits, err := s.retrieveSemantic(ctx, intent, req.TopK())
	if err != nil {
		return nil, err
	}

	return finalize(hits, req.TopK()), nil
}

// searchKeyword ranks by lexical relevance over the raw query terms. The
// intent extractor is consulted only for the city; its food terms are not
// used as search text in this mode.
func (s *Service) searchKeyword(ctx context.Context, req *request.Request) ([]domain.Hit, error) {
	intent, err := s.extractIntent(ctx, req.Query())
	if err != nil {
		return nil, err
	}

	hits, err := s.retrieveKeyword(ctx, req.Query(), intent.Location, req.TopK())
	if err != nil {
		return nil, err
	}

	return finalize(hits, req.TopK()), nil
}

// searchHybrid runs both retrievals concurrently, overfetching candidates,
// then fuses the two sets under the configured weights. The join is the
// synchronization barrier: fusion never sees a partial pair.
func (s *Service) searchHybrid(ctx context.Context, req *request.Request) ([]domain.Hit, error) {
	intent, err := s.extractIntent(ctx, req.Query())
	if err != nil {
		return nil, err
	}

	fetchK := req.TopK() * s.cfg.OverfetchFactor

	var semantic, keyword []domain.Hit
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hits, err := s.retrieveSemantic(gctx, intent, fetchK)
		if err != nil {
			return err
		}
		semantic = hits
		return nil
	})

	g.Go(func() error {
		hits, err := s.retrieveKeyword(gctx, req.Query(), intent.Location, fetchK)
		if err != nil {
			return err
		}
		keyword = hits
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused, err := fuseWeighted(semantic, keyword, s.cfg.SemanticWeight, s.cfg.KeywordWeight, req.TopK())
	if err != nil {
		logpkg.FromContext(ctx).Error("score fusion failed",
			zap.String("query", req.Query()),
			zap.Error(err),
		)
		return nil, err
	}

	return fused, nil
}

// extractIntent calls the intent extractor under the per-call timeout.
func (s *Service) extractIntent(ctx context.Context, query string) (domain.Intent, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	intent, err := s.intent.Extract(callCtx, query)
	if err != nil {
		return domain.Intent{}, fmt.Errorf("extract intent: %w", err)
	}
	return intent, nil
}

// retrieveSemantic embeds the food terms and runs the KNN search.
func (s *Service) retrieveSemantic(ctx context.Context, intent domain.Intent, topK int) ([]domain.Hit, error) {
	embCtx, cancelEmb := s.callContext(ctx)
	defer cancelEmb()

	embResult, err := s.embed.Embed(embCtx, intent.FoodTerms)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	knnCtx, cancelKNN := s.callContext(ctx)
	defer cancelKNN()

	hits, err := s.repo.SearchKNN(knnCtx, embResult.Embedding, topK, intent.Location)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return hits, nil
}

// retrieveKeyword runs the BM25 search over the raw query terms.
func (s *Service) retrieveKeyword(ctx context.Context, query, city string, topK int) ([]domain.Hit, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	hits, err := s.repo.SearchBM25(callCtx, query, topK, city)
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}
	return hits, nil
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}

// finalize enforces the ranked-list contract for single-mode results:
// descending score with deterministic tie-break, unique ids, at most topK.
func finalize(hits []domain.Hit, topK int) []domain.Hit {
	sortHits(hits)
	hits = dedupeHits(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

func recordSearch(m mode.Mode, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchesTotal.WithLabelValues(string(m), status).Inc()
}
