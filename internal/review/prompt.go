package review

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a strict, expert code reviewer. Your job is to review an assembled code context and produce structured findings in JSON format.

Rules:
1. Only review the code shown in the context blocks. Do not speculate about code that is not shown.
2. Focus on bugs, security issues, performance problems, and correctness. Avoid bikeshedding on style unless it impacts readability significantly.
3. Be concise and actionable. Every finding must include a concrete suggestion.
4. Reference the line numbers printed in the context blocks; they are real source line numbers.
5. Rate severity as "low", "medium", or "high".
6. Rate your confidence from 0.0 to 1.0.
7. Categorize each finding as one of: bug, security, performance, correctness, style, maintainability, testing, docs.

You MUST respond with ONLY a JSON array of findings. No markdown, no explanation, no preamble. Just the JSON array.

Each finding must have this exact structure:
{
  "severity": "low|medium|high",
  "category": "bug|security|performance|correctness|style|maintainability|testing|docs",
  "title": "Short descriptive title",
  "message": "What is wrong and why it matters",
  "suggestion": "How to fix it, with code if helpful",
  "confidence": 0.0-1.0,
  "path": "relative/file/path",
  "startLine": 1,
  "endLine": 1,
  "tags": ["optional", "tags"]
}

If there are no issues, respond with an empty array: []`

// SystemPrompt returns the system prompt for context review.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt constructs the user prompt from a packed context and
// review options.
func BuildUserPrompt(packed, description string, maxFindings int, failOn string, cl *Checklist) string {
	var b strings.Builder

	b.WriteString("Review the following assembled code context.\n\n")

	if maxFindings > 0 {
		fmt.Fprintf(&b, "Return at most %d findings.\n", maxFindings)
	}
	if failOn != "" && failOn != "none" {
		fmt.Fprintf(&b, "Focus especially on findings with severity %s or above.\n", failOn)
	}

	if description != "" {
		fmt.Fprintf(&b, "\nProject description:\n%s\n", description)
	}

	if section := cl.PromptSection(); section != "" {
		b.WriteString(section)
	}

	b.WriteString("\n--- BEGIN CONTEXT ---\n")
	b.WriteString(packed)
	b.WriteString("\n--- END CONTEXT ---\n")

	return b.String()
}

// BuildBatchPrompt constructs the user prompt for one batch of a multipass
// review. The model is asked for a compact interim summary rather than final
// findings.
func BuildBatchPrompt(packed, description string, cl *Checklist, batch, total int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "This is batch %d of %d of an assembled code context.\n", batch, total)
	b.WriteString("Summarize the problems you see in this batch. Be specific about files and line numbers. Do not repeat code.\n")

	if description != "" {
		fmt.Fprintf(&b, "\nProject description:\n%s\n", description)
	}
	if section := cl.PromptSection(); section != "" {
		b.WriteString(section)
	}

	b.WriteString("\n--- BEGIN CONTEXT ---\n")
	b.WriteString(packed)
	b.WriteString("\n--- END CONTEXT ---\n")

	return b.String()
}

// BuildAggregatePrompt constructs the final prompt of a multipass review,
// merging per-batch summaries into one set of structured findings.
func BuildAggregatePrompt(summaries []string, description string, maxFindings int, cl *Checklist) string {
	var b strings.Builder

	b.WriteString("Below are interim review summaries for batches of the same codebase. Merge them, remove duplicates, and produce the final findings.\n")
	if maxFindings > 0 {
		fmt.Fprintf(&b, "Return at most %d findings.\n", maxFindings)
	}

	if description != "" {
		fmt.Fprintf(&b, "\nProject description:\n%s\n", description)
	}
	if section := cl.PromptSection(); section != "" {
		b.WriteString(section)
	}

	for i, s := range summaries {
		fmt.Fprintf(&b, "\n--- BATCH %d SUMMARY ---\n%s\n", i+1, s)
	}

	return b.String()
}

// BuildRulePrompt constructs the user prompt for a single checklist item in
// per-rule mode: the requirement plus the retrieved code evidence.
func BuildRulePrompt(item ChecklistItem, evidence []string) string {
	var b strings.Builder

	b.WriteString("Verify the following requirement against the code evidence below.\n\n")
	fmt.Fprintf(&b, "Requirement [%s]: %s\n", item.ID, item.Text)
	b.WriteString("\nReport only violations of this requirement. If the evidence satisfies it or is inconclusive, respond with an empty array: []\n")

	b.WriteString("\n--- BEGIN EVIDENCE ---\n")
	for _, e := range evidence {
		b.WriteString(e)
		if !strings.HasSuffix(e, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("--- END EVIDENCE ---\n")

	return b.String()
}

// RenderEvidence formats one retrieved chunk as an evidence block with its
// file path and line range.
func RenderEvidence(file string, startLine, endLine int, text string) string {
	return fmt.Sprintf("=== %s [lines %d-%d] ===\n%s", file, startLine, endLine, text)
}
