package db

// KNNQuery is the input for vector similarity search.
// City, when non-empty, is a hard TAG pre-filter: candidates outside the
// city are excluded before ranking, not down-weighted.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	City         string
	VectorField  string
	ReturnFields []string
}

// TextQuery is the input for BM25 text search. Same pre-filter semantics.
type TextQuery struct {
	IndexName    string
	Query        string
	TopK         int
	City         string
	TextFields   []string
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
