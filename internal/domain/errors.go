package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty query or an out-of-range top_k.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIntentProvider signals an intent extraction service failure.
	ErrIntentProvider = errors.New("intent provider error")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrIndexUnavailable signals that the retrieval index is unreachable or missing.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrFusionInconsistency signals a score outside the expected normalization range.
	ErrFusionInconsistency = errors.New("fusion inconsistency")
)
