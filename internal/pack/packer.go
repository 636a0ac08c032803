package pack

import (
	"fmt"
	"strings"

	"revlens/internal/graph"
)

// Default budgets, matching the typical call sites.
const (
	DefaultBudget      = 6000
	DefaultBatchBudget = 3500
	DefaultMaxBatches  = 4
)

// Options tunes packing. The zero value is not valid; use Defaults.
type Options struct {
	// Budget caps the serialized block total of a single context, in
	// characters. The graph-summary header is not counted against it.
	Budget int
	// BatchBudget caps each batch independently.
	BatchBudget int
	// MaxBatches caps how many batches are produced.
	MaxBatches int
	// SummaryNodes and SummaryEdges truncate the graph summary header.
	SummaryNodes int
	SummaryEdges int
}

// Defaults returns the standard packing options.
func Defaults() Options {
	return Options{
		Budget:       DefaultBudget,
		BatchBudget:  DefaultBatchBudget,
		MaxBatches:   DefaultMaxBatches,
		SummaryNodes: graph.DefaultSummaryNodes,
		SummaryEdges: graph.DefaultSummaryEdges,
	}
}

func (o Options) validate() error {
	if o.Budget < 0 {
		return fmt.Errorf("pack: negative context budget %d", o.Budget)
	}
	if o.BatchBudget < 0 {
		return fmt.Errorf("pack: negative batch budget %d", o.BatchBudget)
	}
	if o.MaxBatches < 1 {
		return fmt.Errorf("pack: batch count %d, need at least 1", o.MaxBatches)
	}
	return nil
}

// Context assembles one budgeted context string from the graph: a summary
// header followed by node blocks in score order. The highest-scoring node is
// always included; after that, the first node whose block would overflow the
// budget stops the loop.
func Context(g *graph.Graph, query string, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	var blocks []string
	total := 0
	for _, sn := range graph.Rank(g, query) {
		block := renderBlock(sn.Node, 1)
		if len(blocks) > 0 && total+len(block) > opts.Budget {
			break
		}
		blocks = append(blocks, block)
		total += len(block)
		if total >= opts.Budget {
			break
		}
	}

	summary := graph.RenderSummary(g.Edges, opts.SummaryNodes, opts.SummaryEdges)
	return summary + strings.Join(blocks, "\n"), nil
}

// Batches partitions nodes into at most MaxBatches strings, each bounded by
// BatchBudget. Nodes are offered in score order; once accepted into a batch a
// node is never re-offered. A batch's first block is placed regardless of
// size; a later block that would overflow closes the batch. Batching stops
// entirely once an empty batch would be produced.
func Batches(g *graph.Graph, query string, opts Options) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	scored := graph.Rank(g, query)
	used := make(map[string]bool)
	var batches []string

	idx := 0
	for idx < len(scored) && len(batches) < opts.MaxBatches {
		total := 0
		var parts []string
		for idx < len(scored) && total < opts.BatchBudget {
			sn := scored[idx]
			idx++
			if used[sn.Node.ID] {
				continue
			}
			block := renderBlock(sn.Node, 2)
			if total+len(block) > opts.BatchBudget && len(parts) > 0 {
				break
			}
			parts = append(parts, block)
			used[sn.Node.ID] = true
			total += len(block)
		}
		if len(parts) == 0 {
			break
		}
		batches = append(batches, strings.Join(parts, "\n"))
	}
	return batches, nil
}

// renderBlock serializes a node: a header line identifying kind, name and
// path, then up to maxChunks chunks, each introduced by a "[lines A-B]"
// marker and printed with absolute line-number prefixes so consumers can
// reconstruct exact file:line citations.
func renderBlock(n *graph.Node, maxChunks int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s | %s | %s ===\n", n.Kind, n.Name, n.Path)

	chunks := n.Chunks
	if len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	for _, ch := range chunks {
		fmt.Fprintf(&b, "[lines %d-%d]\n", ch.LineStart, ch.LineEnd)
		lines := splitLines(ch.Text)
		if len(lines) == 0 {
			b.WriteString("\n")
			continue
		}
		for i, ln := range lines {
			fmt.Fprintf(&b, "%d: %s\n", ch.LineStart+i, ln)
		}
	}
	return b.String()
}

// splitLines splits on '\n' without producing a phantom final line for
// newline-terminated text.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
