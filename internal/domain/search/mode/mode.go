package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	Semantic Mode = "semantic"
	Keyword  Mode = "keyword"
	// Hybrid fuses semantic and keyword results into one ranked list.
	Hybrid Mode = "hybrid"
	// Compare runs semantic and keyword independently and returns both
	// result sets unmerged, for side-by-side presentation.
	Compare Mode = "compare"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Semantic || m == Keyword || m == Hybrid || m == Compare
}
