package index

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// Document is one entry of the corpus. The order of the slice handed to
// Build assigns document ids.
type Document struct {
	Name string
	Text string
}

// Normalizer maps raw text to its ordered sequence of normalized terms.
type Normalizer interface {
	Normalize(text string) []string
}

// NormalizerFunc adapts a plain function to Normalizer.
type NormalizerFunc func(text string) []string

func (f NormalizerFunc) Normalize(text string) []string { return f(text) }

type buildOptions struct {
	workers int
}

// BuildOption tunes Build.
type BuildOption func(*buildOptions)

// WithWorkers bounds how many documents are normalized concurrently.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) BuildOption {
	return func(o *buildOptions) { o.workers = n }
}

// Build normalizes every document and constructs an index of type typ.
// Normalization runs in parallel; postings are folded in document order.
func Build(ctx context.Context, docs []Document, n Normalizer, typ PostingType, opts ...BuildOption) (*InvertedIndex, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("building index of type %d: %w", int(typ), apperrors.ErrUnsupportedIndexType)
	}
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	names := make([]string, len(docs))
	terms := make([][]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, doc := range docs {
		names[i] = doc.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			terms[i] = n.Normalize(doc.Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("normalizing corpus: %w", err)
	}
	return BuildFromTerms(names, terms, typ)
}

// BuildFromTerms constructs an index from already normalized documents.
// names[i] and terms[i] describe document id i.
func BuildFromTerms(names []string, terms [][]string, typ PostingType) (*InvertedIndex, error) {
	if len(names) != len(terms) {
		return nil, fmt.Errorf("%d document names for %d term sequences: %w", len(names), len(terms), apperrors.ErrInvalidInput)
	}
	b, err := newBuilder(typ)
	if err != nil {
		return nil, err
	}
	for id, seq := range terms {
		b.add(id, seq)
	}
	idx := &InvertedIndex{
		Type:     typ,
		Postings: b.postings,
		Docs:     append([]string(nil), names...),
	}
	if typ == Frequency {
		idx.Stats = ComputeStats(terms)
	}
	return idx, nil
}

type builder struct {
	typ      PostingType
	postings map[string]PostingList
}

func newBuilder(typ PostingType) (*builder, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("building index of type %d: %w", int(typ), apperrors.ErrUnsupportedIndexType)
	}
	return &builder{
		typ:      typ,
		postings: make(map[string]PostingList),
	}, nil
}

// add folds document id's terms into the postings. Calls must arrive in
// ascending id order.
func (b *builder) add(id int, terms []string) {
	for pos, term := range terms {
		pl := b.postings[term]
		last := len(pl) - 1
		seen := last >= 0 && pl[last].DocID == id
		switch b.typ {
		case Presence:
			if !seen {
				pl = append(pl, Posting{DocID: id})
			}
		case Frequency:
			if seen {
				pl[last].Frequency++
			} else {
				pl = append(pl, Posting{DocID: id, Frequency: 1})
			}
		case Position:
			if seen {
				pl[last].Positions = append(pl[last].Positions, pos)
			} else {
				pl = append(pl, Posting{DocID: id, Positions: []int{pos}})
			}
		}
		b.postings[term] = pl
	}
}
