package review

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"revlens/internal/index"
	"revlens/internal/redact"
	"revlens/internal/retrieval"
)

// RunPerRule executes the per-rule review mode: each checklist item is
// verified independently against chunks retrieved for it from the full-text
// corpus.
func (e *Engine) RunPerRule(ctx context.Context, root string, cl *Checklist) (*Report, error) {
	if cl == nil || len(cl.Items) == 0 {
		return nil, fmt.Errorf("per-rule review requires a checklist with at least one item")
	}

	startTime := time.Now()

	corpus, err := e.corpus(root)
	if err != nil {
		return nil, fmt.Errorf("building corpus: %w", err)
	}
	hybrid := retrieval.NewHybrid(corpus, e.rankers(ctx, corpus)...)
	scanMs := time.Since(startTime).Milliseconds()

	topK := e.cfg.Retrieval.TopK
	if topK <= 0 {
		topK = 8
	}

	llmStart := time.Now()
	var findings []Finding
	for _, item := range cl.Items {
		hits := hybrid.Retrieve(ctx, item.Text, topK)
		if len(hits) == 0 {
			continue
		}

		evidence := make([]string, 0, len(hits))
		for _, h := range hits {
			text := h.Text
			if e.cfg.Privacy.RedactSecrets {
				text = redactChunk(text, h.File, e.cfg.Privacy.RedactPaths)
			}
			evidence = append(evidence, RenderEvidence(h.File, h.StartLine, h.EndLine, text))
		}

		ruleFindings, err := e.generateFindings(ctx, BuildRulePrompt(item, evidence))
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", item.ID, err)
		}
		for i := range ruleFindings {
			ruleFindings[i].Rule = item.ID
			ruleFindings[i].ID = generateFindingID(ruleFindings[i])
		}
		findings = append(findings, ruleFindings...)
	}
	llmMs := time.Since(llmStart).Milliseconds()

	findings = ApplySeverityOverrides(findings, cl)
	findings = dedupeAndSort(findings)
	if e.cfg.MaxFindings > 0 && len(findings) > e.cfg.MaxFindings {
		findings = findings[:e.cfg.MaxFindings]
	}
	if findings == nil {
		findings = []Finding{}
	}

	files := make(map[string]bool)
	for _, ch := range corpus.Chunks {
		files[ch.File] = true
	}

	return &Report{
		Tool:     "revlens",
		Version:  "1.0",
		RunID:    uuid.NewString(),
		Project:  ProjectInfo{Root: root, Files: len(files)},
		Inputs:   InputInfo{Mode: "per-rule", Rules: len(cl.Items)},
		Summary:  ComputeSummary(findings),
		Findings: findings,
		Timing: Timing{
			ScanMs:  scanMs,
			LLMMs:   llmMs,
			TotalMs: time.Since(startTime).Milliseconds(),
		},
	}, nil
}

// rankers assembles the available rankers for the corpus. BM25 always
// works; the embedding ranker joins only when credentials are configured
// and the corpus embeds successfully.
func (e *Engine) rankers(ctx context.Context, corpus *index.Corpus) []retrieval.Ranker {
	rankers := []retrieval.Ranker{retrieval.NewBM25(corpus)}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" && e.cfg.Retrieval.EmbeddingBaseURL == "" {
		return rankers
	}
	emb, err := retrieval.NewEmbedding(ctx, corpus, retrieval.EmbeddingConfig{
		APIKey:  apiKey,
		BaseURL: e.cfg.Retrieval.EmbeddingBaseURL,
		Model:   e.cfg.Retrieval.EmbeddingModel,
	})
	if err != nil {
		// Fusion degrades to lexical-only; an unreachable embeddings
		// endpoint must not sink the review.
		return rankers
	}
	return append(rankers, emb)
}

func redactChunk(text, file string, redactPaths []string) string {
	return redact.Content(text, file, redactPaths)
}

// dedupeAndSort removes findings that duplicate an earlier finding's
// location and rule, then orders the result by file, start line, severity.
func dedupeAndSort(findings []Finding) []Finding {
	seen := make(map[string]bool)
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		key := dedupeKey(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := primaryLocation(out[i]), primaryLocation(out[j])
		if pi.Path != pj.Path {
			return pi.Path < pj.Path
		}
		if pi.Lines.Start != pj.Lines.Start {
			return pi.Lines.Start < pj.Lines.Start
		}
		return SeverityRank(out[i].Severity) > SeverityRank(out[j].Severity)
	})
	return out
}

func dedupeKey(f Finding) string {
	loc := primaryLocation(f)
	return fmt.Sprintf("%s:%d:%d:%s", loc.Path, loc.Lines.Start, loc.Lines.End, f.Rule)
}

func primaryLocation(f Finding) Location {
	if len(f.Locations) > 0 {
		return f.Locations[0]
	}
	return Location{}
}
