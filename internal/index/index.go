package index

import (
	"regexp"
	"sort"
	"strings"

	"revlens/internal/scanner"
)

// Chunk is one line window of a corpus file. StartLine and EndLine are
// 1-based and inclusive.
type Chunk struct {
	File      string
	StartLine int
	EndLine   int
	Text      string
}

// Options tunes corpus construction.
type Options struct {
	// MaxFileBytes truncates oversized files. Defaults to 200000.
	MaxFileBytes int
	// ChunkLines is the window height in lines. Defaults to 400.
	ChunkLines int
	// OverlapLines is how many lines consecutive windows share. Defaults
	// to 50.
	OverlapLines int
}

func (o Options) withDefaults() Options {
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = 200000
	}
	if o.ChunkLines <= 0 {
		o.ChunkLines = 400
	}
	if o.OverlapLines < 0 {
		o.OverlapLines = 0
	}
	// The window stride is ChunkLines-OverlapLines; it must stay positive or
	// the slicing loop never advances.
	if o.OverlapLines >= o.ChunkLines {
		o.OverlapLines = o.ChunkLines - 1
	}
	return o
}

// Corpus is the flat chunk collection for one project root.
type Corpus struct {
	Root   string
	Chunks []Chunk
}

// Build constructs a corpus with default options.
func Build(root string) (*Corpus, error) {
	return BuildWith(root, Options{})
}

// BuildWith walks root in sorted order, skipping binary-like extensions, and
// slices every readable file into overlapping line windows.
func BuildWith(root string, opts Options) (*Corpus, error) {
	opts = opts.withDefaults()
	files, err := scanner.ScanAll(root, scanner.Options{MaxFileBytes: opts.MaxFileBytes})
	if err != nil {
		return nil, err
	}

	c := &Corpus{Root: root}
	for _, f := range files {
		lines := splitLines(f.Text)
		start := 0
		for start < len(lines) {
			end := start + opts.ChunkLines
			if end > len(lines) {
				end = len(lines)
			}
			c.Chunks = append(c.Chunks, Chunk{
				File:      f.Path,
				StartLine: start + 1,
				EndLine:   end,
				Text:      strings.Join(lines[start:end], "\n"),
			})
			if end == len(lines) {
				break // final window reached the end of the file
			}
			start = end - opts.OverlapLines
			if start < 0 {
				start = 0
			}
		}
	}
	return c, nil
}

var tokenPat = regexp.MustCompile(`[\p{L}\p{N}_-]{3,}`)

// Tokenize lowercases text and extracts the distinct tokens of three or more
// word characters used by the term-frequency scan and the lexical ranker.
func Tokenize(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tokenPat.FindAllString(strings.ToLower(text), -1) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Terms extracts every token occurrence in order, without deduplication,
// for rankers that need term frequencies.
func Terms(text string) []string {
	return tokenPat.FindAllString(strings.ToLower(text), -1)
}

// Scan is the naive fallback ranking: it counts query-token occurrences per
// chunk, keeps nonzero scores, and returns up to topK chunks sorted by count
// descending with corpus order breaking ties. Identical inputs always
// produce identical output.
func (c *Corpus) Scan(query string, topK int) []Chunk {
	tokens := Tokenize(query)
	if len(tokens) == 0 || topK <= 0 {
		return nil
	}

	type scored struct {
		count int
		idx   int
	}
	var hits []scored
	for i, ch := range c.Chunks {
		lower := strings.ToLower(ch.Text)
		n := 0
		for _, t := range tokens {
			n += strings.Count(lower, t)
		}
		if n > 0 {
			hits = append(hits, scored{count: n, idx: i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].count > hits[j].count
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]Chunk, len(hits))
	for i, h := range hits {
		out[i] = c.Chunks[h.idx]
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
