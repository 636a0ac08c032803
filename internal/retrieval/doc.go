// Package retrieval answers narrow, per-rule queries over the full-text
// corpus by fusing independent rankers.
//
// A Ranker is any source of ordered hits for a query; the package ships a
// BM25 lexical ranker and an embedding-based vector ranker, but the hybrid
// retriever only depends on the interface. Rankings are merged with
// Reciprocal Rank Fusion keyed by a content fingerprint (file, line range,
// text hash) so identical hits from different rankers accumulate one score.
// A ranker failure degrades fusion to the surviving rankers; when none
// produce results the retriever falls back to the corpus's deterministic
// term-frequency scan.
package retrieval
