package graph

import (
	"path"
	"regexp"
	"strings"
)

// SummaryHeader is the first line of a rendered graph summary.
const SummaryHeader = "Graph relations (abbreviated):"

// Default truncation for rendered summaries.
const (
	DefaultSummaryNodes = 10
	DefaultSummaryEdges = 6
)

// RenderSummary renders the edge set as compact adjacency lines:
//
//	nodeId : kind->target, kind->target, ...
//
// At most maxNodes source nodes are listed, with at most maxEdges edges
// each, in first-seen edge order. The line syntax is a stable contract:
// SummaryToMermaid and external renderers parse it back.
func RenderSummary(edges []Edge, maxNodes, maxEdges int) string {
	var order []string
	rels := make(map[string][]string)
	for _, e := range edges {
		if _, ok := rels[e.Source]; !ok {
			order = append(order, e.Source)
		}
		rels[e.Source] = append(rels[e.Source], e.Kind+"->"+e.Target)
	}

	var b strings.Builder
	b.WriteString(SummaryHeader)
	b.WriteString("\n")
	for i, src := range order {
		if i >= maxNodes {
			break
		}
		lst := rels[src]
		if len(lst) > maxEdges {
			lst = lst[:maxEdges]
		}
		b.WriteString(src)
		b.WriteString(" : ")
		b.WriteString(strings.Join(lst, ", "))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

var mermaidIDPat = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SummaryToMermaid converts a rendered summary back into a Mermaid
// "graph LR" diagram. Import edges are drawn as plain links, contains edges
// as arrows. Output is capped at 200 nodes and 400 edges.
func SummaryToMermaid(summary string) string {
	type edge struct{ src, tgt, rel string }
	var edges []edge
	var nodes []string
	seen := make(map[string]bool)
	note := func(id string) {
		if !seen[id] {
			seen[id] = true
			nodes = append(nodes, id)
		}
	}

	for _, ln := range strings.Split(summary, "\n") {
		left, right, ok := strings.Cut(ln, " : ")
		if !ok {
			continue
		}
		src := strings.TrimSpace(left)
		for _, part := range strings.Split(right, ",") {
			rel, tgt, ok := strings.Cut(strings.TrimSpace(part), "->")
			if !ok {
				continue
			}
			edges = append(edges, edge{src: src, tgt: strings.TrimSpace(tgt), rel: strings.TrimSpace(rel)})
			note(src)
			note(strings.TrimSpace(tgt))
		}
	}

	lines := []string{"graph LR"}
	for i, n := range nodes {
		if i >= 200 {
			break
		}
		lines = append(lines, mermaidID(n)+`["`+mermaidLabel(n)+`"]`)
	}
	for i, e := range edges {
		if i >= 400 {
			break
		}
		arrow := "-->"
		if e.rel == EdgeImports {
			arrow = "---"
		}
		lines = append(lines, mermaidID(e.src)+" "+arrow+" "+mermaidID(e.tgt)+":::rel")
	}
	lines = append(lines, "classDef rel stroke:#888,stroke-width:1px,color:#444")
	return strings.Join(lines, "\n")
}

func mermaidID(id string) string {
	s := mermaidIDPat.ReplaceAllString(id, "_")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

func mermaidLabel(id string) string {
	var base string
	if i := strings.LastIndex(id, "::"); i >= 0 {
		base = id[i+2:]
	} else {
		base = path.Base(id)
	}
	if len(base) > 60 {
		base = base[:60]
	}
	return base
}
