package domain

import "context"

// Intent is the structured reading of a free-form dining query.
// Location is empty when the query names no city; callers treat that as
// "no location filter", never as an error.
type Intent struct {
	FoodTerms string
	Location  string
}

// IntentExtractor turns a raw query into a searchable Intent.
type IntentExtractor interface {
	Extract(ctx context.Context, query string) (Intent, error)
}
