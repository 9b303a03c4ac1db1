package request

import (
	"fmt"
	"strings"

	"github.com/ruchi-search/ruchi/internal/domain"
	"github.com/ruchi-search/ruchi/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
)

// Request is a validated search query. Immutable once constructed.
type Request struct {
	query      string
	searchMode mode.Mode
	topK       int
}

// New validates and normalizes search parameters.
// topK outside [1, maxTopK] is rejected rather than clamped or defaulted, so
// identical requests always mean the same thing; an explicit 0 is invalid.
// Callers substitute DefaultTopK when the parameter was omitted entirely.
func New(query string, m mode.Mode, topK, maxTopK int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrInvalidQuery, m)
	}
	if topK < 1 || topK > maxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d, got %d", domain.ErrInvalidQuery, maxTopK, topK)
	}

	return Request{query: query, searchMode: m, topK: topK}, nil
}

// Query returns the trimmed search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// TopK returns the number of results requested.
func (r *Request) TopK() int { return r.topK }
