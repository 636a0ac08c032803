// Package index maintains a flat full-text chunk corpus over a project tree.
//
// Unlike the dependency graph, the corpus covers every readable file except
// binary-like extensions, sliced into overlapping line windows with recorded
// 1-based line ranges. It backs the hybrid retriever's rankers and supplies
// the deterministic term-frequency fallback used when no ranker is available.
package index
