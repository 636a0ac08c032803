// Package review contains the core types and engine for LLM-based project
// review over an assembled code context.
//
// It defines the Finding, Report, and Severity types, packs the code graph
// into budgeted context (single or multipass), assembles prompts, parses
// and validates JSON responses from LLM providers, and generates stable
// finding IDs as SHA-256 hashes of path, rule, title, and line context.
//
// Multipass mode reviews batch contexts one at a time, collecting interim
// summaries that a final aggregation prompt merges into one report.
//
// Per-rule mode (perrule.go) verifies each checklist item independently:
// the hybrid retriever pulls the most relevant chunks for the item and the
// model reports only violations of that requirement. Results across rules
// are deduplicated by location and sorted by file and line.
//
// Checklists (rules.go) load from plain text, JSON rules packs, or YAML,
// and can override finding severities and declare focus areas.
package review
