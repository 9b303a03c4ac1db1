package domain

// Restaurant is the display projection of an indexed restaurant record.
// The record itself is owned by the external ingestion job; this service
// only reads it back from search hits.
type Restaurant struct {
	RestaurantID     string
	Name             string
	Cuisines         string
	Location         string
	Rating           float64
	CostForTwo       int
	TextForEmbedding string
}

// Hit is a restaurant scored by one search mode (or by fusion).
type Hit struct {
	Restaurant
	Score float64
}
