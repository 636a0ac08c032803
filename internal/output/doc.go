// Package output formats review reports for display or machine consumption.
//
// Four formats are supported:
//   - text     — human-readable terminal output (default)
//   - json     — full structured JSON report
//   - markdown — collapsible sections per finding, suitable for pasting into
//     an issue or review thread
//   - sarif    — SARIF v2.1.0 for upload to code-scanning CI tools
//
// Use [GetWriter] to obtain a [Writer] for a given format string, or
// [WriteReport] to write a report directly to a file path or stdout.
package output
