// Package ranker orders scored documents for presentation.
package ranker

import (
	"container/heap"
	"sort"
)

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// better reports whether a ranks ahead of b: higher score first, then lower
// id.
func better(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// Rank orders scores by descending similarity, ties by ascending id, and
// keeps the first limit entries. limit <= 0 keeps everything.
func Rank(scores map[int]float64, limit int) []ScoredDoc {
	if limit <= 0 || limit >= len(scores) {
		result := make([]ScoredDoc, 0, len(scores))
		for id, s := range scores {
			result = append(result, ScoredDoc{DocID: id, Score: s})
		}
		sort.Slice(result, func(i, j int) bool { return better(result[i], result[j]) })
		return result
	}
	return topK(scores, limit)
}

// topK keeps the limit best documents in a min-heap whose root is the
// worst of them.
func topK(scores map[int]float64, limit int) []ScoredDoc {
	h := make(scoredDocHeap, 0, limit+1)
	for id, s := range scores {
		doc := ScoredDoc{DocID: id, Score: s}
		if h.Len() < limit {
			heap.Push(&h, doc)
			continue
		}
		if better(doc, h[0]) {
			h[0] = doc
			heap.Fix(&h, 0)
		}
	}
	result := make([]ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(ScoredDoc)
	}
	return result
}

type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return better(h[j], h[i]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x any) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
