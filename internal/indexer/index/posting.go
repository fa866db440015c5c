package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// PostingType is the discriminant of an index: it decides which fields of a
// Posting carry meaning.
type PostingType int

const (
	// Presence postings record only the document id.
	Presence PostingType = 1
	// Frequency postings record the raw term count per document.
	Frequency PostingType = 2
	// Position postings record the zero-based token positions per document.
	Position PostingType = 3
)

// ParsePostingType validates a numeric index type as found in configuration
// or storage.
func ParsePostingType(n int) (PostingType, error) {
	t := PostingType(n)
	if !t.Valid() {
		return 0, fmt.Errorf("index type %d: %w", n, apperrors.ErrUnsupportedIndexType)
	}
	return t, nil
}

func (t PostingType) Valid() bool {
	return t == Presence || t == Frequency || t == Position
}

func (t PostingType) String() string {
	switch t {
	case Presence:
		return "presence"
	case Frequency:
		return "frequency"
	case Position:
		return "position"
	default:
		return fmt.Sprintf("PostingType(%d)", int(t))
	}
}

// Posting is one document's entry in a term's posting list. Frequency is
// set only in Frequency indexes and Positions only in Position indexes.
type Posting struct {
	DocID     int   `json:"d"`
	Frequency int   `json:"f,omitempty"`
	Positions []int `json:"p,omitempty"`
}

// Count returns how often the term occurs in the document, or 1 for a
// presence posting.
func (p Posting) Count() int {
	switch {
	case p.Positions != nil:
		return len(p.Positions)
	case p.Frequency > 0:
		return p.Frequency
	default:
		return 1
	}
}

// PostingList is ordered by strictly ascending DocID.
type PostingList []Posting

// DocIDs projects the list onto its document ids.
func (pl PostingList) DocIDs() []int {
	ids := make([]int, len(pl))
	for i, p := range pl {
		ids[i] = p.DocID
	}
	return ids
}

// TermEntry pairs a term with its postings, used when an index is streamed
// to storage in term order.
type TermEntry struct {
	Term     string
	Postings PostingList
}
