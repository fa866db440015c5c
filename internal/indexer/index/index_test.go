package index

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// splitter is a stand-in normalizer: lower-case whitespace split.
var splitter = NormalizerFunc(func(text string) []string {
	return strings.Fields(strings.ToLower(text))
})

func corpus() []Document {
	return []Document{
		{Name: "d0", Text: "dumb query dumb"},
		{Name: "d1", Text: "information retrieval"},
		{Name: "d2", Text: ""},
		{Name: "d3", Text: "test"},
		{Name: "d4", Text: "dumb query test"},
	}
}

func TestBuildAssignsIDsInCorpusOrder(t *testing.T) {
	idx, err := Build(context.Background(), corpus(), splitter, Presence)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"d0", "d1", "d2", "d3", "d4"}
	if !reflect.DeepEqual(idx.Docs, want) {
		t.Fatalf("Docs = %v, want %v", idx.Docs, want)
	}
	if name, ok := idx.DocName(4); !ok || name != "d4" {
		t.Errorf("DocName(4) = %q, %v", name, ok)
	}
	if _, ok := idx.DocName(5); ok {
		t.Error("DocName(5) should be unknown")
	}
}

func TestBuildPresence(t *testing.T) {
	idx, err := Build(context.Background(), corpus(), splitter, Presence)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := idx.DocIDs("dumb"); !reflect.DeepEqual(got, []int{0, 4}) {
		t.Errorf("dumb = %v", got)
	}
	if got := idx.DocIDs("test"); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("test = %v", got)
	}
	if idx.Stats != nil {
		t.Error("presence index must not carry statistics")
	}
	pl, _ := idx.Lookup("dumb")
	if pl[0].Frequency != 0 || pl[0].Positions != nil {
		t.Errorf("presence posting carries payload: %+v", pl[0])
	}
	if err := idx.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestBuildFrequencyMatchesLiteralCounts(t *testing.T) {
	docs := corpus()
	idx, err := Build(context.Background(), docs, splitter, Frequency, WithWorkers(2))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for term, pl := range idx.Postings {
		for _, p := range pl {
			want := 0
			for _, tok := range splitter.Normalize(docs[p.DocID].Text) {
				if tok == term {
					want++
				}
			}
			if p.Frequency != want {
				t.Errorf("term %q doc %d: frequency %d, literal count %d", term, p.DocID, p.Frequency, want)
			}
		}
	}
	pl, _ := idx.Lookup("dumb")
	if !reflect.DeepEqual(pl, PostingList{{DocID: 0, Frequency: 2}, {DocID: 4, Frequency: 1}}) {
		t.Errorf("dumb postings = %+v", pl)
	}
}

func TestBuildFrequencyStats(t *testing.T) {
	idx, err := Build(context.Background(), corpus(), splitter, Frequency)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Stats == nil || idx.Stats.NumDocs != 5 {
		t.Fatalf("stats = %+v", idx.Stats)
	}
	want := []DocStats{
		{MaxFreq: 2, MeanFreq: 1.5, UniqueTerms: 2},
		{MaxFreq: 1, MeanFreq: 1, UniqueTerms: 2},
		{},
		{MaxFreq: 1, MeanFreq: 1, UniqueTerms: 1},
		{MaxFreq: 1, MeanFreq: 1, UniqueTerms: 3},
	}
	if !reflect.DeepEqual(idx.Stats.Docs, want) {
		t.Errorf("doc stats = %+v, want %+v", idx.Stats.Docs, want)
	}
	if got := idx.Stats.Doc(99); got != (DocStats{}) {
		t.Errorf("unknown doc stats = %+v", got)
	}
}

func TestBuildPosition(t *testing.T) {
	idx, err := Build(context.Background(), corpus(), splitter, Position)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pl, _ := idx.Lookup("dumb")
	want := PostingList{
		{DocID: 0, Positions: []int{0, 2}},
		{DocID: 4, Positions: []int{0}},
	}
	if !reflect.DeepEqual(pl, want) {
		t.Errorf("dumb = %+v, want %+v", pl, want)
	}
	if pl[0].Count() != 2 {
		t.Errorf("Count = %d", pl[0].Count())
	}
	tl, _ := idx.Lookup("test")
	if !reflect.DeepEqual(tl[1].Positions, []int{2}) {
		t.Errorf("test in d4 = %v", tl[1].Positions)
	}
	if idx.Stats != nil {
		t.Error("position index must not carry statistics")
	}
}

func TestBuildPositionsFollowNormalizedStream(t *testing.T) {
	// The normalizer drops "the"; positions index the surviving stream.
	dropThe := NormalizerFunc(func(text string) []string {
		var out []string
		for _, w := range strings.Fields(text) {
			if w != "the" {
				out = append(out, w)
			}
		}
		return out
	})
	idx, err := Build(context.Background(), []Document{{Name: "a", Text: "the cat the dog cat"}}, dropThe, Position)
	if err != nil {
		t.Fatal(err)
	}
	cat, _ := idx.Lookup("cat")
	if !reflect.DeepEqual(cat[0].Positions, []int{0, 2}) {
		t.Errorf("cat positions = %v", cat[0].Positions)
	}
}

func TestBuildUnsupportedType(t *testing.T) {
	for _, typ := range []PostingType{0, 4, -1} {
		_, err := Build(context.Background(), corpus(), splitter, typ)
		if !errors.Is(err, apperrors.ErrUnsupportedIndexType) {
			t.Errorf("type %d: err = %v, want ErrUnsupportedIndexType", typ, err)
		}
	}
	if _, err := ParsePostingType(7); !errors.Is(err, apperrors.ErrUnsupportedIndexType) {
		t.Errorf("ParsePostingType(7) err = %v", err)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, corpus(), splitter, Presence); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPostingsAscendingAcrossWorkers(t *testing.T) {
	docs := make([]Document, 200)
	for i := range docs {
		docs[i] = Document{Name: strings.Repeat("x", i%7), Text: "alpha beta gamma alpha"}
	}
	idx, err := Build(context.Background(), docs, splitter, Frequency, WithWorkers(8))
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := idx.DocFreq("alpha"); got != 200 {
		t.Errorf("DocFreq(alpha) = %d", got)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	idx := &InvertedIndex{
		Type:     Presence,
		Postings: map[string]PostingList{"a": {{DocID: 1}, {DocID: 0}}},
		Docs:     []string{"x", "y"},
	}
	if err := idx.Validate(); !errors.Is(err, apperrors.ErrCorruptIndex) {
		t.Errorf("out of order: err = %v", err)
	}
	idx = &InvertedIndex{Type: Frequency, Postings: map[string]PostingList{}, Docs: []string{"x"}}
	if err := idx.Validate(); !errors.Is(err, apperrors.ErrCorruptIndex) {
		t.Errorf("missing stats: err = %v", err)
	}
}

func TestTermsAndNames(t *testing.T) {
	idx, err := Build(context.Background(), corpus(), splitter, Presence)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"dumb", "information", "query", "retrieval", "test"}
	if got := idx.Terms(); !reflect.DeepEqual(got, want) {
		t.Errorf("Terms = %v", got)
	}
	if got := idx.Names([]int{4, 0, 42}); !reflect.DeepEqual(got, []string{"d4", "d0"}) {
		t.Errorf("Names = %v", got)
	}
	if len(idx.Entries()) != idx.NumTerms() {
		t.Error("Entries length mismatch")
	}
}
