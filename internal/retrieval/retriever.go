package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"revlens/internal/index"
)

// Hit is one retrieved chunk with citation metadata.
type Hit struct {
	File      string
	StartLine int
	EndLine   int
	Text      string
}

// Ranker produces an ordered result list for a query. Implementations may
// call external services; the retriever treats every call as fallible.
type Ranker interface {
	Rank(ctx context.Context, query string, topK int) ([]Hit, error)
	Name() string
}

// Reciprocal Rank Fusion constants: a result at 0-based rank r contributes
// rrfWeight/(rrfK+r+1) to its fingerprint's fused score.
const (
	rrfK      = 60
	rrfWeight = 1.0
)

// defaultRankerTopK is how many hits each ranker is asked for per query.
const defaultRankerTopK = 10

// Hybrid fuses the rankings of several rankers over one corpus.
type Hybrid struct {
	corpus     *index.Corpus
	rankers    []Ranker
	rankerTopK int
}

// NewHybrid builds a retriever over corpus. Rankers may be empty; retrieval
// then always uses the term-frequency fallback.
func NewHybrid(corpus *index.Corpus, rankers ...Ranker) *Hybrid {
	return &Hybrid{corpus: corpus, rankers: rankers, rankerTopK: defaultRankerTopK}
}

// Retrieve returns up to topK chunks for the query. Each ranker is invoked
// independently and failures are swallowed per ranker; if none returns any
// hit, the corpus scan supplies a deterministic fallback ranking.
func (h *Hybrid) Retrieve(ctx context.Context, query string, topK int) []Hit {
	if topK <= 0 {
		return nil
	}

	scores := make(map[string]float64)
	payload := make(map[string]Hit)
	var order []string // first-seen fingerprints; deterministic tie order

	fused := false
	for _, r := range h.rankers {
		hits, err := r.Rank(ctx, query, h.rankerTopK)
		if err != nil || len(hits) == 0 {
			continue // one ranker failing does not abort fusion
		}
		fused = true
		for rank, hit := range hits {
			key := fingerprint(hit)
			if _, ok := scores[key]; !ok {
				order = append(order, key)
				payload[key] = hit
			}
			scores[key] += rrfWeight / float64(rrfK+rank+1)
		}
	}

	if !fused {
		return h.fallback(query, topK)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	if len(order) > topK {
		order = order[:topK]
	}
	out := make([]Hit, len(order))
	for i, key := range order {
		out[i] = payload[key]
	}
	return out
}

func (h *Hybrid) fallback(query string, topK int) []Hit {
	if h.corpus == nil {
		return nil
	}
	chunks := h.corpus.Scan(query, topK)
	out := make([]Hit, len(chunks))
	for i, c := range chunks {
		out[i] = Hit{File: c.File, StartLine: c.StartLine, EndLine: c.EndLine, Text: c.Text}
	}
	return out
}

// fingerprint deduplicates identical hits returned by different rankers.
func fingerprint(h Hit) string {
	f := fnv.New64a()
	f.Write([]byte(h.Text))
	return fmt.Sprintf("%s:%d-%d:%x", h.File, h.StartLine, h.EndLine, f.Sum64())
}
