package retrieval

import (
	"context"
	"math"
	"sort"

	"revlens/internal/index"
)

// BM25 parameters; the usual defaults.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// BM25 is a lexical ranker over the corpus chunks. Term and document
// frequencies are precomputed at construction; Rank itself does no I/O and
// never fails.
type BM25 struct {
	corpus *index.Corpus
	freqs  []map[string]int
	df     map[string]int
	lens   []int
	avgLen float64
}

// NewBM25 indexes the corpus for lexical ranking.
func NewBM25(corpus *index.Corpus) *BM25 {
	r := &BM25{
		corpus: corpus,
		freqs:  make([]map[string]int, len(corpus.Chunks)),
		df:     make(map[string]int),
		lens:   make([]int, len(corpus.Chunks)),
	}
	total := 0
	for i, ch := range corpus.Chunks {
		tf := make(map[string]int)
		n := 0
		for _, t := range index.Terms(ch.Text) {
			tf[t]++
			n++
		}
		for t := range tf {
			r.df[t]++
		}
		r.freqs[i] = tf
		r.lens[i] = n
		total += n
	}
	if len(corpus.Chunks) > 0 {
		r.avgLen = float64(total) / float64(len(corpus.Chunks))
	}
	return r
}

func (r *BM25) Name() string { return "bm25" }

// Rank scores every chunk against the query's distinct tokens and returns
// the nonzero top topK, ties broken by corpus order.
func (r *BM25) Rank(_ context.Context, query string, topK int) ([]Hit, error) {
	tokens := index.Tokenize(query)
	if len(tokens) == 0 || topK <= 0 {
		return nil, nil
	}

	n := float64(len(r.corpus.Chunks))
	type scored struct {
		score float64
		idx   int
	}
	var hits []scored
	for i := range r.corpus.Chunks {
		s := 0.0
		for _, t := range tokens {
			tf := float64(r.freqs[i][t])
			if tf == 0 {
				continue
			}
			df := float64(r.df[t])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*float64(r.lens[i])/r.avgLen))
			s += idf * norm
		}
		if s > 0 {
			hits = append(hits, scored{score: s, idx: i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]Hit, len(hits))
	for i, h := range hits {
		c := r.corpus.Chunks[h.idx]
		out[i] = Hit{File: c.File, StartLine: c.StartLine, EndLine: c.EndLine, Text: c.Text}
	}
	return out, nil
}
