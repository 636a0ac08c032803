package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"revlens/internal/config"
	"revlens/internal/graph"
	"revlens/internal/index"
	"revlens/internal/pack"
	"revlens/internal/retrieval"
	"revlens/internal/review"
)

// Inspection flags
var (
	flagQuery   string
	flagMermaid bool
)

// inspectQuery resolves the ranking query: --query wins, otherwise the
// checklist text from --rules, otherwise empty (structural ranking only).
func inspectQuery(cfg config.Config) (string, error) {
	if flagQuery != "" {
		return flagQuery, nil
	}
	cl, err := review.LoadChecklist(cfg.RulesFile)
	if err != nil {
		return "", err
	}
	return cl.Text(), nil
}

func graphConfig(cfg config.Config) graph.Config {
	gc := graph.DefaultConfig()
	ec := cfg.Engine
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

func packOptions(cfg config.Config) pack.Options {
	opts := pack.Defaults()
	ec := cfg.Engine
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

var contextCmd = &cobra.Command{
	Use:   "context [path]",
	Short: "Print the packed single-pass context",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		query, err := inspectQuery(cfg)
		if err != nil {
			return err
		}
		g, err := graph.BuildWith(rootArg(args), graphConfig(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		packed, err := pack.Context(g, query, packOptions(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintln(os.Stdout, packed)
		return nil
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches [path]",
	Short: "Print the multipass context batches",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		query, err := inspectQuery(cfg)
		if err != nil {
			return err
		}
		g, err := graph.BuildWith(rootArg(args), graphConfig(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		batches, err := pack.Batches(g, query, packOptions(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		for i, b := range batches {
			fmt.Fprintf(os.Stdout, "--- BATCH %d/%d ---\n%s\n", i+1, len(batches), b)
		}
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Print the code graph summary",
	Long:  "Print the abbreviated relation summary of the project's code graph, or a Mermaid diagram with --mermaid.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		g, err := graph.BuildWith(rootArg(args), graphConfig(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		summary := graph.RenderSummary(g.Edges, cfg.Engine.SummaryNodes, cfg.Engine.SummaryEdges)
		if flagMermaid {
			fmt.Fprintln(os.Stdout, graph.SummaryToMermaid(summary))
			return nil
		}
		fmt.Fprintf(os.Stdout, "%d nodes, %d edges\n\n%s", len(g.Nodes), len(g.Edges), summary)
		return nil
	},
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [path]",
	Short: "Retrieve the most relevant chunks for a query",
	Long:  "Index the tree's full text and print the top chunks for --query, fused across the lexical and embedding rankers when both are available.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		if flagQuery == "" {
			return fmt.Errorf("retrieve needs --query")
		}

		corpus, err := index.BuildWith(rootArg(args), index.Options{
			MaxFileBytes: cfg.Retrieval.MaxFileBytes,
			ChunkLines:   cfg.Retrieval.ChunkLines,
			OverlapLines: cfg.Retrieval.OverlapLines,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		ctx := context.Background()
		rankers := []retrieval.Ranker{retrieval.NewBM25(corpus)}
		if key := os.Getenv("OPENAI_API_KEY"); key != "" || cfg.Retrieval.EmbeddingBaseURL != "" {
			emb, err := retrieval.NewEmbedding(ctx, corpus, retrieval.EmbeddingConfig{
				APIKey:  key,
				BaseURL: cfg.Retrieval.EmbeddingBaseURL,
				Model:   cfg.Retrieval.EmbeddingModel,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "WARNING: embedding ranker unavailable: %v\n", err)
			} else {
				rankers = append(rankers, emb)
			}
		}

		topK := cfg.Retrieval.TopK
		hybrid := retrieval.NewHybrid(corpus, rankers...)
		for _, h := range hybrid.Retrieve(ctx, flagQuery, topK) {
			fmt.Fprintf(os.Stdout, "=== %s [lines %d-%d] ===\n%s\n", h.File, h.StartLine, h.EndLine, h.Text)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{contextCmd, batchesCmd, retrieveCmd} {
		cmd.Flags().StringVarP(&flagQuery, "query", "q", "", "Ranking query")
		cmd.Flags().StringVar(&flagRules, "rules", "", "Checklist file whose text ranks the graph")
	}
	graphCmd.Flags().BoolVar(&flagMermaid, "mermaid", false, "Emit a Mermaid diagram")
}
