package index

// DocStats holds the per-document figures needed by the normalized
// weighting schemes.
type DocStats struct {
	MaxFreq     int     `json:"max_freq"`
	MeanFreq    float64 `json:"mean_freq"`
	UniqueTerms int     `json:"unique"`
}

// CollectionStats is indexed by document id.
type CollectionStats struct {
	NumDocs int        `json:"num_docs"`
	Docs    []DocStats `json:"docs"`
}

// Doc returns the statistics of id, or the zero value for an unknown id.
func (s *CollectionStats) Doc(id int) DocStats {
	if id < 0 || id >= len(s.Docs) {
		return DocStats{}
	}
	return s.Docs[id]
}

// ComputeStats derives collection statistics from each document's
// normalized term sequence. An empty document gets all-zero statistics.
func ComputeStats(docs [][]string) *CollectionStats {
	stats := &CollectionStats{
		NumDocs: len(docs),
		Docs:    make([]DocStats, len(docs)),
	}
	for id, terms := range docs {
		stats.Docs[id] = docStats(terms)
	}
	return stats
}

func docStats(terms []string) DocStats {
	if len(terms) == 0 {
		return DocStats{}
	}
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	maxFreq := 0
	for _, c := range counts {
		if c > maxFreq {
			maxFreq = c
		}
	}
	return DocStats{
		MaxFreq:     maxFreq,
		MeanFreq:    float64(len(terms)) / float64(len(counts)),
		UniqueTerms: len(counts),
	}
}
