package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"revlens/internal/config"
	"revlens/internal/output"
	"revlens/internal/project"
	"revlens/internal/providers"
	"revlens/internal/review"
	"revlens/internal/scanner"
)

// Shared review flags
var (
	flagDescription   string
	flagProvider      string
	flagModel         string
	flagFormat        string
	flagOut           string
	flagFailOn        string
	flagMaxFindings   int
	flagRules         string
	flagMultipass     bool
	flagPerRule       bool
	flagNoRedact      bool
	flagContextBudget int
	flagBatchBudget   int
	flagMaxBatches    int
	flagTopK          int
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagDescription, "description", "d", "", "Project description to steer the review")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, yandex, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high)")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of findings")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Checklist file (.txt, .json, .yaml)")
	cmd.Flags().BoolVar(&flagMultipass, "multipass", false, "Batch the context and aggregate per-batch summaries")
	cmd.Flags().BoolVar(&flagPerRule, "per-rule", false, "Verify each checklist item against retrieved evidence")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().IntVar(&flagContextBudget, "context-budget", 0, "Single-pass context budget in characters")
	cmd.Flags().IntVar(&flagBatchBudget, "batch-budget", 0, "Per-batch context budget in characters")
	cmd.Flags().IntVar(&flagMaxBatches, "max-batches", 0, "Maximum number of multipass batches")
	cmd.Flags().IntVar(&flagTopK, "top-k", 0, "Chunks retrieved per checklist rule")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = fmt.Sprintf("%d", flagMaxFindings)
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagContextBudget > 0 {
		m["contextBudget"] = fmt.Sprintf("%d", flagContextBudget)
	}
	if flagBatchBudget > 0 {
		m["batchBudget"] = fmt.Sprintf("%d", flagBatchBudget)
	}
	if flagMaxBatches > 0 {
		m["maxBatches"] = fmt.Sprintf("%d", flagMaxBatches)
	}
	if flagTopK > 0 {
		m["topK"] = fmt.Sprintf("%d", flagTopK)
	}
	return m
}

// rootArg resolves the positional path argument, descending wrapper
// directories, defaulting to the current directory.
func rootArg(args []string) string {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	return project.ResolveRoot(root)
}

var reviewCmd = &cobra.Command{
	Use:   "review [path]",
	Short: "Review a source tree",
	Long:  "Assemble packed context from the project's code graph and run an LLM review over it. With --rules and --per-rule, each checklist item is verified against retrieved evidence instead.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		runReview(rootArg(args), cfg)
		return nil
	},
}

func runReview(root string, cfg config.Config) {
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	cl, err := review.LoadChecklist(cfg.RulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	if flagPerRule && (cl == nil || len(cl.Items) == 0) {
		fmt.Fprintln(os.Stderr, "Error: --per-rule needs a checklist with items (--rules)")
		exitCode = ExitUsageError
		return
	}

	gen, err := providers.New(cfg.Provider, cfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitAuthError
		return
	}
	engine, err := review.NewEngine(cfg, gen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	slog.Debug("starting review", "root", root, "provider", cfg.Provider, "model", cfg.Model,
		"multipass", flagMultipass, "perRule", flagPerRule)

	ctx := context.Background()
	var report *review.Report
	if flagPerRule {
		report, err = engine.RunPerRule(ctx, root, cl)
	} else {
		report, err = engine.Run(ctx, root, review.RunOptions{
			Description: flagDescription,
			Checklist:   cl,
			Multipass:   flagMultipass,
		})
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case providers.IsAuthError(err):
			exitCode = ExitAuthError
		case errors.Is(err, scanner.ErrNoSources):
			exitCode = ExitUsageError
		default:
			exitCode = ExitRuntimeError
		}
		return
	}

	slog.Debug("review finished", "findings", len(report.Findings),
		"scanMs", report.Timing.ScanMs, "llmMs", report.Timing.LLMMs)

	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	// Check fail-on threshold
	if cfg.FailOn != "none" && cfg.FailOn != "" {
		for _, f := range report.Findings {
			if review.MeetsThreshold(f.Severity, cfg.FailOn) {
				exitCode = ExitFindings
				return
			}
		}
	}
}

func init() {
	addReviewFlags(reviewCmd)
}
