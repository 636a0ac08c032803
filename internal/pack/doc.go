// Package pack serializes ranked graph nodes into character-budgeted text
// blocks suitable for a generation prompt.
//
// Single-context mode produces one string: a graph-summary header followed by
// node blocks in score order, each block a header line plus the node's first
// chunk with every line prefixed by its absolute line number. Batch mode
// partitions nodes into several independently budgeted strings with up to two
// chunks per node; a node is consumed by the first batch that accepts it.
//
// Budgets bound the serialized block total. The first block of a context or
// batch is always placed even if it alone overflows, so a non-empty scan
// always yields at least one block; running out of budget afterwards is the
// normal termination condition, not an error.
package pack
