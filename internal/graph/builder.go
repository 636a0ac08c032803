package graph

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"revlens/internal/scanner"
)

// Config controls chunk sizes and declaration-window carving. Windows are an
// explicit approximation: a declaration's text is a fixed-size slice starting
// at the keyword match, clipped to the end of the file.
type Config struct {
	FileChunkSize    int
	FileChunkOverlap int
	UnitChunkSize    int
	UnitChunkOverlap int
	ClassWindow      int
	FuncWindow       int
}

// DefaultConfig returns the standard engine tuning.
func DefaultConfig() Config {
	return Config{
		FileChunkSize:    900,
		FileChunkOverlap: 150,
		UnitChunkSize:    700,
		UnitChunkOverlap: 120,
		ClassWindow:      2000,
		FuncWindow:       1200,
	}
}

var (
	importPat     = regexp.MustCompile(`\bimport\s+([A-Za-z0-9_.]+)`)
	fromImportPat = regexp.MustCompile(`\bfrom\s+([A-Za-z0-9_.]+)\s+import\s`)
	classPat      = regexp.MustCompile(`\bclass\s+([A-Za-z_][A-Za-z0-9_]*)\b`)
	funcPat       = regexp.MustCompile(`\b(?:def|func|function|fn)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

// Build scans root and constructs the dependency graph with default tuning.
func Build(root string) (*Graph, error) {
	return BuildWith(root, DefaultConfig())
}

// BuildWith scans root and constructs the dependency graph.
func BuildWith(root string, cfg Config) (*Graph, error) {
	files, err := scanner.Scan(root)
	if err != nil {
		return nil, err
	}
	return FromFiles(files, cfg), nil
}

// FromFiles builds the graph from an already-scanned file set. File and unit
// nodes are created first; import edges are resolved in a second pass so the
// module-name map is complete before any lookup.
func FromFiles(files []scanner.File, cfg Config) *Graph {
	g := NewGraph()

	// Lowercase base name -> path; first occurrence wins on collision.
	modules := make(map[string]string, len(files))
	for _, f := range files {
		mn := moduleName(f.Path)
		if _, ok := modules[mn]; !ok {
			modules[mn] = f.Path
		}
	}

	for _, f := range files {
		fid := fileID(f.Path)
		g.add(&Node{
			ID:     fid,
			Kind:   KindFile,
			Name:   path.Base(f.Path),
			Path:   f.Path,
			Text:   f.Text,
			Chunks: SplitChunks(f.Text, cfg.FileChunkSize, cfg.FileChunkOverlap, 1),
		})

		for _, u := range extractUnits(f.Text, cfg) {
			uid := fmt.Sprintf("%s::%s::%s", fid, u.kind, u.name)
			if _, taken := g.Node(uid); taken {
				// Same-named declaration in one file: disambiguate by offset.
				uid = fmt.Sprintf("%s::%d", uid, u.start)
			}
			segment := f.Text[u.start:u.end]
			baseLine := strings.Count(f.Text[:u.start], "\n") + 1
			if g.add(&Node{
				ID:     uid,
				Kind:   u.kind,
				Name:   u.name,
				Path:   f.Path,
				Text:   segment,
				Chunks: SplitChunks(segment, cfg.UnitChunkSize, cfg.UnitChunkOverlap, baseLine),
			}) {
				g.Edges = append(g.Edges, Edge{Source: fid, Target: uid, Kind: EdgeContains})
			}
		}
	}

	for _, f := range files {
		fid := fileID(f.Path)
		for _, imp := range extractImports(f.Text) {
			target, ok := modules[imp]
			if !ok {
				continue // unresolved import tokens produce no edge
			}
			g.Edges = append(g.Edges, Edge{Source: fid, Target: fileID(target), Kind: EdgeImports})
		}
	}

	return g
}

func fileID(p string) string { return "file::" + p }

// moduleName maps a path to the lowercase base name without extension, the
// key used for import resolution.
func moduleName(p string) string {
	base := path.Base(p)
	return strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
}

// extractImports returns the first dotted segment of every import-like
// statement, lowercased. False positives are accepted; resolution filters
// them against the scanned module set.
func extractImports(code string) []string {
	var out []string
	for _, m := range importPat.FindAllStringSubmatch(code, -1) {
		out = append(out, firstSegment(m[1]))
	}
	for _, m := range fromImportPat.FindAllStringSubmatch(code, -1) {
		out = append(out, firstSegment(m[1]))
	}
	return out
}

func firstSegment(token string) string {
	if i := strings.IndexByte(token, '.'); i >= 0 {
		token = token[:i]
	}
	return strings.ToLower(token)
}

type unit struct {
	kind  Kind
	name  string
	start int
	end   int
}

// extractUnits finds declaration-like statements by keyword and identifier
// pattern. This is pattern matching, not parsing: matches inside comments or
// strings are accepted as noise.
func extractUnits(code string, cfg Config) []unit {
	var units []unit
	for _, m := range classPat.FindAllStringSubmatchIndex(code, -1) {
		units = append(units, unit{
			kind:  KindClass,
			name:  code[m[2]:m[3]],
			start: m[0],
			end:   clip(m[0]+cfg.ClassWindow, len(code)),
		})
	}
	for _, m := range funcPat.FindAllStringSubmatchIndex(code, -1) {
		units = append(units, unit{
			kind:  KindFunction,
			name:  code[m[2]:m[3]],
			start: m[0],
			end:   clip(m[0]+cfg.FuncWindow, len(code)),
		})
	}
	return units
}

func clip(v, max int) int {
	if v > max {
		return max
	}
	return v
}
