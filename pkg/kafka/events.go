package kafka

import "time"

// IndexCompleteKey keys every IndexComplete event so they land on one
// partition in publication order.
const IndexCompleteKey = "index-complete"

// IndexCompleteEvent announces that a new index snapshot has been saved and
// is ready to be loaded.
type IndexCompleteEvent struct {
	BuildID   string    `json:"build_id"`
	Backend   string    `json:"backend"`
	Location  string    `json:"location,omitempty"`
	IndexType int       `json:"index_type"`
	NumDocs   int       `json:"num_docs"`
	NumTerms  int       `json:"num_terms"`
	BuiltAt   time.Time `json:"built_at"`
}
