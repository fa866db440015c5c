// Package index holds the inverted index built once from a corpus snapshot:
// term postings in one of three representations, the document id to name
// mapping, and for frequency indexes the per-document statistics used by
// vector-space scoring.
package index

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// InvertedIndex is immutable after Build returns and safe for concurrent
// readers.
type InvertedIndex struct {
	Type     PostingType
	Postings map[string]PostingList
	// Docs maps document id (the slice index) to document name.
	Docs []string
	// Stats is non-nil only for Frequency indexes.
	Stats *CollectionStats
}

// Lookup returns the postings of term.
func (idx *InvertedIndex) Lookup(term string) (PostingList, bool) {
	pl, ok := idx.Postings[term]
	return pl, ok
}

// DocIDs returns the ascending document ids containing term, or nil.
func (idx *InvertedIndex) DocIDs(term string) []int {
	pl, ok := idx.Postings[term]
	if !ok {
		return nil
	}
	return pl.DocIDs()
}

// DocFreq is the number of documents containing term.
func (idx *InvertedIndex) DocFreq(term string) int {
	return len(idx.Postings[term])
}

// DocName maps an id back to the document name.
func (idx *InvertedIndex) DocName(id int) (string, bool) {
	if id < 0 || id >= len(idx.Docs) {
		return "", false
	}
	return idx.Docs[id], true
}

// Names maps ids to document names, preserving order. Unknown ids are
// skipped.
func (idx *InvertedIndex) Names(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := idx.DocName(id); ok {
			names = append(names, name)
		}
	}
	return names
}

func (idx *InvertedIndex) NumDocs() int {
	return len(idx.Docs)
}

func (idx *InvertedIndex) NumTerms() int {
	return len(idx.Postings)
}

// Terms returns every indexed term in lexical order.
func (idx *InvertedIndex) Terms() []string {
	terms := make([]string, 0, len(idx.Postings))
	for t := range idx.Postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Entries returns the index as term-ordered entries.
func (idx *InvertedIndex) Entries() []TermEntry {
	terms := idx.Terms()
	entries := make([]TermEntry, len(terms))
	for i, t := range terms {
		entries[i] = TermEntry{Term: t, Postings: idx.Postings[t]}
	}
	return entries
}

// Validate checks the structural invariants of an index that did not come
// straight out of Build, e.g. one loaded from storage.
func (idx *InvertedIndex) Validate() error {
	if !idx.Type.Valid() {
		return fmt.Errorf("index type %d: %w", int(idx.Type), apperrors.ErrUnsupportedIndexType)
	}
	if idx.Type == Frequency {
		if idx.Stats == nil {
			return fmt.Errorf("frequency index without collection statistics: %w", apperrors.ErrCorruptIndex)
		}
		if idx.Stats.NumDocs != len(idx.Docs) || len(idx.Stats.Docs) != len(idx.Docs) {
			return fmt.Errorf("statistics cover %d docs, index has %d: %w",
				idx.Stats.NumDocs, len(idx.Docs), apperrors.ErrCorruptIndex)
		}
	}
	for term, pl := range idx.Postings {
		if len(pl) == 0 {
			return fmt.Errorf("term %q has an empty posting list: %w", term, apperrors.ErrCorruptIndex)
		}
		prev := -1
		for _, p := range pl {
			if p.DocID <= prev || p.DocID >= len(idx.Docs) {
				return fmt.Errorf("term %q: doc id %d out of order or range: %w", term, p.DocID, apperrors.ErrCorruptIndex)
			}
			prev = p.DocID
		}
	}
	return nil
}
