// Package graph builds a lightweight dependency graph over a scanned source
// tree and ranks its nodes for relevance.
//
// Nodes are files plus the classes and functions declared inside them,
// detected by keyword/identifier patterns rather than real parsing; this is a
// deliberate precision/cost trade-off that degrades gracefully on any
// language. Edges are "contains" (file owns a declared unit) and "imports"
// (file references another scanned file by module name). Every node carries
// overlapping, line-accurate text chunks so that downstream consumers can
// emit exact file:line citations.
//
// Scoring combines query-token matches, an entry-point name vocabulary,
// graph centrality (in/out degree), and a capped length bonus. The scorer is
// a pure function; identical inputs always produce identical scores.
package graph
