package graph

// Kind identifies the unit of source a node represents.
type Kind string

const (
	KindFile     Kind = "file"
	KindClass    Kind = "class"
	KindFunction Kind = "function"
)

// Edge kinds.
const (
	EdgeContains = "contains"
	EdgeImports  = "imports"
)

// Node is a unit of source (file, class, or function) exposed for scoring
// and packing. For class and function nodes, Text is a slice of the owning
// file's text and Chunks carry line numbers in whole-file coordinates.
type Node struct {
	ID     string
	Kind   Kind
	Name   string
	Path   string
	Text   string
	Chunks []Chunk
}

// Edge is a directed relation between two nodes.
type Edge struct {
	Source string
	Target string
	Kind   string
}

// Graph holds nodes in discovery order plus the edge list. Discovery order
// matters: it is the tie-break for equal relevance scores.
type Graph struct {
	Nodes []*Node
	Edges []Edge

	byID map[string]*Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{byID: make(map[string]*Node)}
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// add appends a node, refusing duplicates. Returns false on id collision.
func (g *Graph) add(n *Node) bool {
	if _, exists := g.byID[n.ID]; exists {
		return false
	}
	g.byID[n.ID] = n
	g.Nodes = append(g.Nodes, n)
	return true
}
