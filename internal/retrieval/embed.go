package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"revlens/internal/index"
)

// embedBatchSize bounds how many chunk texts go into one embeddings request.
const embedBatchSize = 64

// Embedding ranks chunks by cosine similarity against an embeddings API
// (OpenAI or any compatible endpoint such as Ollama). Corpus vectors are
// computed once at construction; Rank embeds only the query.
type Embedding struct {
	client *openai.Client
	model  openai.EmbeddingModel
	corpus *index.Corpus
	vecs   [][]float32
}

// EmbeddingConfig selects the embeddings endpoint.
type EmbeddingConfig struct {
	APIKey  string
	BaseURL string // empty means the OpenAI default
	Model   string // empty means text-embedding-3-small
}

// NewEmbedding embeds the whole corpus up front. An unreachable endpoint
// surfaces here, so callers can drop the ranker and let fusion degrade.
func NewEmbedding(ctx context.Context, corpus *index.Corpus, cfg EmbeddingConfig) (*Embedding, error) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}

	e := &Embedding{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		corpus: corpus,
		vecs:   make([][]float32, 0, len(corpus.Chunks)),
	}

	for start := 0; start < len(corpus.Chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(corpus.Chunks) {
			end = len(corpus.Chunks)
		}
		batch := make([]string, 0, end-start)
		for _, ch := range corpus.Chunks[start:end] {
			batch = append(batch, ch.Text)
		}
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: e.model,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding corpus chunks %d-%d: %w", start, end, err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embedding response has %d vectors, want %d", len(resp.Data), end-start)
		}
		for _, d := range resp.Data {
			e.vecs = append(e.vecs, d.Embedding)
		}
	}
	return e, nil
}

func (e *Embedding) Name() string { return "vector" }

// Rank embeds the query and returns the topK most similar chunks.
func (e *Embedding) Rank(ctx context.Context, query string, topK int) ([]Hit, error) {
	if topK <= 0 || len(e.vecs) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{query},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}
	q := resp.Data[0].Embedding

	type scored struct {
		score float64
		idx   int
	}
	hits := make([]scored, len(e.vecs))
	for i, v := range e.vecs {
		hits[i] = scored{score: cosine(q, v), idx: i}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]Hit, len(hits))
	for i, h := range hits {
		c := e.corpus.Chunks[h.idx]
		out[i] = Hit{File: c.File, StartLine: c.StartLine, EndLine: c.EndLine, Text: c.Text}
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
