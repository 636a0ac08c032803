// Revlens is a CLI for reviewing whole source trees with LLM providers.
//
// It scans a project into a code graph, packs the most relevant nodes into
// budgeted context, and runs single-pass, multipass, or per-rule review over
// it, emitting structured findings with deterministic exit codes suitable
// for CI gating.
//
// Usage:
//
//	revlens review ./project                     # single-pass review
//	revlens review ./project --multipass         # batch and aggregate
//	revlens review ./project --rules checklist.yaml --per-rule
//	revlens context ./project --query "auth"     # inspect packed context
//	revlens graph ./project --mermaid            # dependency diagram
//	revlens retrieve ./project --query "token"   # hybrid retrieval
//	revlens check ./project --suite tests.json   # declarative autotests
package main
