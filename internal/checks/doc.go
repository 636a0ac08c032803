// Package checks runs declarative project autotests: existence, glob,
// substring and regex-count checks described in a JSON or YAML suite. It
// also carries a naive quality pass for stray debug output. Results are
// per-test and never abort the suite.
package checks
