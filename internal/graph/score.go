package graph

import (
	"regexp"
	"sort"
	"strings"
)

// entryPointWords are name fragments that mark structurally central units.
var entryPointWords = []string{"main", "init", "app", "server", "bot", "handler"}

var tokenSplitPat = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Tokenize lowercases text and splits it on every non-alphanumeric,
// non-underscore run, dropping empty tokens.
func Tokenize(text string) []string {
	parts := tokenSplitPat.Split(strings.ToLower(text), -1)
	out := parts[:0]
	for _, t := range parts {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Degrees computes in- and out-degree for every node id in a single pass
// over the edge set.
func Degrees(edges []Edge) (in, out map[string]int) {
	in = make(map[string]int)
	out = make(map[string]int)
	for _, e := range edges {
		out[e.Source]++
		in[e.Target]++
	}
	return in, out
}

// Score rates a node's relevance to an optional query. It is a pure
// function of its arguments.
//
// The heuristic: +3.0 per distinct query token found in the node's token set
// or as a substring of its lowercase name, +2.5 for entry-point vocabulary in
// the name, +1.0 for file nodes, +0.5 per inbound edge, +0.3 per outbound
// edge, plus a length bonus capped at 2.0.
func Score(n *Node, query string, inDeg, outDeg int) float64 {
	s := 0.0
	name := strings.ToLower(n.Name)

	if query != "" {
		tokens := make(map[string]bool)
		for _, t := range Tokenize(n.Text) {
			tokens[t] = true
		}
		seen := make(map[string]bool)
		for _, q := range Tokenize(query) {
			if seen[q] {
				continue // repeated query tokens do not multiply the bonus
			}
			seen[q] = true
			if tokens[q] || strings.Contains(name, q) {
				s += 3.0
			}
		}
	}

	for _, w := range entryPointWords {
		if strings.Contains(name, w) {
			s += 2.5
			break
		}
	}

	if n.Kind == KindFile {
		s += 1.0
	}

	s += 0.5*float64(inDeg) + 0.3*float64(outDeg)

	if len(n.Text) > 0 {
		bonus := float64(len(n.Text)) / 5000.0
		if bonus > 2.0 {
			bonus = 2.0
		}
		s += bonus
	}

	return s
}

// ScoredNode pairs a node with its relevance score.
type ScoredNode struct {
	Node  *Node
	Score float64
}

// Rank scores every node against query and returns them sorted by score
// descending. Ties keep discovery order: the sort is stable over the
// graph's node slice.
func Rank(g *Graph, query string) []ScoredNode {
	in, out := Degrees(g.Edges)
	scored := make([]ScoredNode, len(g.Nodes))
	for i, n := range g.Nodes {
		scored[i] = ScoredNode{Node: n, Score: Score(n, query, in[n.ID], out[n.ID])}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
