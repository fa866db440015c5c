// Package vector ranks documents against a free-text query with tf-idf
// weights and cosine similarity over a frequency index.
package vector

import (
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// Scores returns the cosine similarity between the query and every
// document sharing at least one term with it. queryTerms must already be
// normalized. The query norm covers every distinct query term; a document
// norm covers only the terms it shares with the query.
func Scores(queryTerms []string, idx *index.InvertedIndex, qw QueryWeighting, dw DocWeighting) (map[int]float64, error) {
	if idx.Type != index.Frequency || idx.Stats == nil {
		return nil, fmt.Errorf("vector scoring needs a %s index, got %s: %w",
			index.Frequency, idx.Type, apperrors.ErrWrongIndexType)
	}

	terms, counts := countTerms(queryTerms)
	numDocs := float64(idx.Stats.NumDocs)
	scores := make(map[int]float64)
	docNorms := make(map[int]float64)
	queryNorm := 0.0

	for _, term := range terms {
		pl, ok := idx.Lookup(term)
		idf := 0.0
		if df := idx.DocFreq(term); df > 0 {
			idf = math.Log(numDocs / float64(df))
		}
		wq := queryWeight(qw, counts[term], idf, ok)
		queryNorm += wq * wq
		for _, p := range pl {
			wd := docWeight(dw, p.Count(), idf, idx.Stats.Doc(p.DocID))
			scores[p.DocID] += wq * wd
			docNorms[p.DocID] += wd * wd
		}
	}

	qn := math.Sqrt(queryNorm)
	for id, s := range scores {
		denom := qn * math.Sqrt(docNorms[id])
		if denom == 0 {
			scores[id] = 0
			continue
		}
		scores[id] = s / denom
	}
	return scores, nil
}

// countTerms returns the distinct terms in first-seen order and their
// multiplicities.
func countTerms(queryTerms []string) ([]string, map[string]int) {
	counts := make(map[string]int, len(queryTerms))
	terms := make([]string, 0, len(queryTerms))
	for _, t := range queryTerms {
		if counts[t] == 0 {
			terms = append(terms, t)
		}
		counts[t]++
	}
	return terms, counts
}

// queryWeight: idf is undefined for a term absent from the index, so such a
// term weighs zero under tf-idf.
func queryWeight(w QueryWeighting, qf int, idf float64, indexed bool) float64 {
	switch w {
	case QueryBinary:
		return 1
	case QueryTF:
		return float64(qf)
	default:
		if !indexed {
			return 0
		}
		return float64(qf) * idf
	}
}

func docWeight(w DocWeighting, tf int, idf float64, stats index.DocStats) float64 {
	switch w {
	case DocBinary:
		return 1
	case DocFrequency:
		return float64(tf)
	case DocTFIDFNormalize:
		if stats.MaxFreq == 0 {
			return 0
		}
		return float64(tf) / float64(stats.MaxFreq) * idf
	case DocTFIDFLogarithmic:
		return logTF(tf) * idf
	default:
		denom := 1.0
		if stats.MeanFreq > 0 {
			denom = 1 + math.Log(stats.MeanFreq)
		}
		return logTF(tf) / denom * idf
	}
}

func logTF(tf int) float64 {
	if tf <= 0 {
		return 0
	}
	return 1 + math.Log(float64(tf))
}
