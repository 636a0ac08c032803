package review

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"

	"revlens/internal/cache"
	"revlens/internal/config"
	"revlens/internal/graph"
	"revlens/internal/index"
	"revlens/internal/pack"
	"revlens/internal/providers"
	"revlens/internal/redact"
	"revlens/internal/scanner"
)

// corpusCacheSize bounds how many built full-text corpora are kept in
// memory across calls. Per-rule runs query the same corpus once per
// checklist item, so one warm entry per recently reviewed root is enough.
const corpusCacheSize = 8

// Engine assembles review context from a source tree and drives the LLM
// review passes over it.
type Engine struct {
	cfg     config.Config
	gen     providers.Generator
	cache   *cache.Cache
	corpora *lru.Cache[string, *index.Corpus]
}

// RunOptions selects how a review is executed.
type RunOptions struct {
	Description string
	Checklist   *Checklist
	Multipass   bool
}

// rawFinding is the JSON structure returned by the LLM.
type rawFinding struct {
	Severity   string   `json:"severity"`
	Category   string   `json:"category"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
	Confidence float64  `json:"confidence"`
	Path       string   `json:"path"`
	StartLine  int      `json:"startLine"`
	EndLine    int      `json:"endLine"`
	Tags       []string `json:"tags"`
}

// NewEngine creates an Engine. The generator is injected so tests can use a
// fake provider.
func NewEngine(cfg config.Config, gen providers.Generator) (*Engine, error) {
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}
	corpora, err := lru.New[string, *index.Corpus](corpusCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating corpus cache: %w", err)
	}
	return &Engine{cfg: cfg, gen: gen, cache: c, corpora: corpora}, nil
}

func (e *Engine) graphConfig() graph.Config {
	gc := graph.DefaultConfig()
	ec := e.cfg.Engine
	if ec.FileChunkSize > 0 {
		gc.FileChunkSize = ec.FileChunkSize
	}
	if ec.FileChunkOverlap > 0 {
		gc.FileChunkOverlap = ec.FileChunkOverlap
	}
	if ec.UnitChunkSize > 0 {
		gc.UnitChunkSize = ec.UnitChunkSize
	}
	if ec.UnitChunkOverlap > 0 {
		gc.UnitChunkOverlap = ec.UnitChunkOverlap
	}
	if ec.ClassWindow > 0 {
		gc.ClassWindow = ec.ClassWindow
	}
	if ec.FuncWindow > 0 {
		gc.FuncWindow = ec.FuncWindow
	}
	return gc
}

func (e *Engine) packOptions() pack.Options {
	opts := pack.Defaults()
	ec := e.cfg.Engine
	if ec.ContextBudget > 0 {
		opts.Budget = ec.ContextBudget
	}
	if ec.BatchBudget > 0 {
		opts.BatchBudget = ec.BatchBudget
	}
	if ec.MaxBatches > 0 {
		opts.MaxBatches = ec.MaxBatches
	}
	if ec.SummaryNodes > 0 {
		opts.SummaryNodes = ec.SummaryNodes
	}
	if ec.SummaryEdges > 0 {
		opts.SummaryEdges = ec.SummaryEdges
	}
	return opts
}

// buildGraph scans the tree and assembles the code graph.
func (e *Engine) buildGraph(root string) ([]scanner.File, *graph.Graph, error) {
	files, err := scanner.Scan(root)
	if err != nil {
		return nil, nil, err
	}
	g := graph.FromFiles(files, e.graphConfig())
	return files, g, nil
}

// Context assembles a single packed context for the tree, ranked against
// the query (typically the checklist text).
func (e *Engine) Context(root, query string) (string, error) {
	_, g, err := e.buildGraph(root)
	if err != nil {
		return "", err
	}
	return pack.Context(g, query, e.packOptions())
}

// Batches assembles multipass contexts for the tree.
func (e *Engine) Batches(root, query string) ([]string, error) {
	_, g, err := e.buildGraph(root)
	if err != nil {
		return nil, err
	}
	return pack.Batches(g, query, e.packOptions())
}

// corpus returns the full-text corpus for root, reusing a cached one when
// the same tree was indexed recently.
func (e *Engine) corpus(root string) (*index.Corpus, error) {
	if c, ok := e.corpora.Get(root); ok {
		return c, nil
	}
	opts := index.Options{
		MaxFileBytes: e.cfg.Retrieval.MaxFileBytes,
		ChunkLines:   e.cfg.Retrieval.ChunkLines,
		OverlapLines: e.cfg.Retrieval.OverlapLines,
	}
	c, err := index.BuildWith(root, opts)
	if err != nil {
		return nil, err
	}
	e.corpora.Add(root, c)
	return c, nil
}

// Run executes a review of the source tree at root.
func (e *Engine) Run(ctx context.Context, root string, opts RunOptions) (*Report, error) {
	startTime := time.Now()

	files, g, err := e.buildGraph(root)
	if err != nil {
		return nil, fmt.Errorf("building code graph: %w", err)
	}
	scanMs := time.Since(startTime).Milliseconds()

	query := opts.Checklist.Text()
	info := ProjectInfo{Root: root, Files: len(files), Nodes: len(g.Nodes), Edges: len(g.Edges)}

	var (
		findings []Finding
		llmMs    int64
		inputs   InputInfo
	)
	if opts.Multipass {
		findings, llmMs, inputs, err = e.runMultipass(ctx, g, query, opts)
	} else {
		findings, llmMs, inputs, err = e.runSingle(ctx, g, query, opts)
	}
	if err != nil {
		return nil, err
	}

	findings = ApplySeverityOverrides(findings, opts.Checklist)
	findings = dedupeAndSort(findings)
	if e.cfg.MaxFindings > 0 && len(findings) > e.cfg.MaxFindings {
		findings = findings[:e.cfg.MaxFindings]
	}

	return &Report{
		Tool:     "revlens",
		Version:  "1.0",
		RunID:    uuid.NewString(),
		Project:  info,
		Inputs:   inputs,
		Summary:  ComputeSummary(findings),
		Findings: findings,
		Timing: Timing{
			ScanMs:  scanMs,
			LLMMs:   llmMs,
			TotalMs: time.Since(startTime).Milliseconds(),
		},
	}, nil
}

func (e *Engine) runSingle(ctx context.Context, g *graph.Graph, query string, opts RunOptions) ([]Finding, int64, InputInfo, error) {
	packed, err := pack.Context(g, query, e.packOptions())
	if err != nil {
		return nil, 0, InputInfo{}, fmt.Errorf("packing context: %w", err)
	}
	if e.cfg.Privacy.RedactSecrets {
		packed = redact.Context(packed)
	}

	userPrompt := BuildUserPrompt(packed, opts.Description, e.cfg.MaxFindings, e.cfg.FailOn, opts.Checklist)

	llmStart := time.Now()
	findings, err := e.generateFindings(ctx, userPrompt)
	if err != nil {
		return nil, 0, InputInfo{}, err
	}
	return findings, time.Since(llmStart).Milliseconds(), InputInfo{Mode: "single"}, nil
}

func (e *Engine) runMultipass(ctx context.Context, g *graph.Graph, query string, opts RunOptions) ([]Finding, int64, InputInfo, error) {
	batches, err := pack.Batches(g, query, e.packOptions())
	if err != nil {
		return nil, 0, InputInfo{}, fmt.Errorf("packing batches: %w", err)
	}

	llmStart := time.Now()
	summaries := make([]string, 0, len(batches))
	for i, packed := range batches {
		if e.cfg.Privacy.RedactSecrets {
			packed = redact.Context(packed)
		}
		prompt := BuildBatchPrompt(packed, opts.Description, opts.Checklist, i+1, len(batches))
		resp, err := e.generate(ctx, providers.Request{
			SystemPrompt: SystemPrompt(),
			UserPrompt:   prompt,
			MaxTokens:    1024,
		})
		if err != nil {
			return nil, 0, InputInfo{}, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
		summaries = append(summaries, resp)
	}

	finalPrompt := BuildAggregatePrompt(summaries, opts.Description, e.cfg.MaxFindings, opts.Checklist)
	findings, err := e.generateFindings(ctx, finalPrompt)
	if err != nil {
		return nil, 0, InputInfo{}, err
	}
	llmMs := time.Since(llmStart).Milliseconds()

	return findings, llmMs, InputInfo{Mode: "multipass", Batches: len(batches)}, nil
}

// generateFindings runs a structured-findings prompt through the provider,
// with one repair pass when the response is not valid JSON.
func (e *Engine) generateFindings(ctx context.Context, userPrompt string) ([]Finding, error) {
	content, err := e.generate(ctx, providers.Request{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   userPrompt,
		MaxTokens:    8192,
	})
	if err != nil {
		return nil, fmt.Errorf("provider generate: %w", err)
	}

	findings, err := parseFindings(content)
	if err == nil {
		return findings, nil
	}

	repairPrompt := fmt.Sprintf(
		"Your previous response was not valid JSON. The error was: %s\n\nPlease fix it and respond with ONLY a valid JSON array of findings.\n\nYour previous response was:\n%s",
		err.Error(), content,
	)
	content2, err2 := e.generate(ctx, providers.Request{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   repairPrompt,
		MaxTokens:    8192,
	})
	if err2 != nil {
		return nil, fmt.Errorf("repair pass failed: %w (original error: %w)", err2, err)
	}
	findings, err = parseFindings(content2)
	if err != nil {
		return nil, fmt.Errorf("response validation failed after repair: %w", err)
	}
	return findings, nil
}

// generate calls the provider through the response cache.
func (e *Engine) generate(ctx context.Context, req providers.Request) (string, error) {
	key := cache.BuildCacheKey(e.gen.Name(), e.cfg.Model, req.SystemPrompt+"\x00"+req.UserPrompt)
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}
	resp, err := e.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if err := e.cache.Put(key, resp.Content); err != nil {
		return resp.Content, nil // cache write failures are not fatal
	}
	return resp.Content, nil
}

func parseFindings(content string) ([]Finding, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 2 {
			// Remove first line (```json) and last line (```)
			start := 1
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end = end - 1
			}
			content = strings.Join(lines[start:end], "\n")
		}
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	findings := make([]Finding, 0, len(raw))
	for _, r := range raw {
		f := Finding{
			Severity:   Severity(r.Severity),
			Category:   Category(r.Category),
			Title:      r.Title,
			Message:    r.Message,
			Suggestion: r.Suggestion,
			Confidence: r.Confidence,
			Tags:       r.Tags,
			Locations: []Location{
				{
					Path: r.Path,
					Lines: LineRange{
						Start: r.StartLine,
						End:   r.EndLine,
					},
				},
			},
		}
		f.ID = generateFindingID(f)
		findings = append(findings, f)
	}

	return findings, nil
}

func generateFindingID(f Finding) string {
	var path string
	var start int
	if len(f.Locations) > 0 {
		path = f.Locations[0].Path
		start = f.Locations[0].Lines.Start
	}
	data := fmt.Sprintf("%s:%s:%s:%d", path, f.Rule, f.Title, start)
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h[:8])
}
