package graph

import (
	"sort"
	"strings"
)

// Chunk is a contiguous slice of a node's text with line-accurate bounds.
// Start and End are character offsets within the node's text. LineStart and
// LineEnd are 1-based inclusive line numbers in whole-file coordinates:
// baseLine (the node's first line in its file) is already folded in.
type Chunk struct {
	Text      string
	Start     int
	End       int
	LineStart int
	LineEnd   int
}

// SplitChunks slices text into overlapping chunks of at most size characters.
// Chunk i+1 starts size-overlap characters after chunk i (at least one
// character of forward progress per step). A size of zero or less returns the
// whole text as a single chunk. baseLine is the 1-based line number of the
// first character of text within its file; pass 1 for whole files.
func SplitChunks(text string, size, overlap, baseLine int) []Chunk {
	if size <= 0 {
		return []Chunk{{
			Text:      text,
			Start:     0,
			End:       len(text),
			LineStart: baseLine,
			LineEnd:   baseLine + strings.Count(text, "\n"),
		}}
	}

	breaks := newlineOffsets(text)
	n := len(text)
	stride := size - overlap
	if stride < 1 {
		stride = 1
	}

	var chunks []Chunk
	for i := 0; i < n; i += stride {
		end := i + size
		if end > n {
			end = n
		}
		chunks = append(chunks, Chunk{
			Text:      text[i:end],
			Start:     i,
			End:       end,
			LineStart: countBefore(breaks, i) + baseLine,
			LineEnd:   countBefore(breaks, end) + baseLine,
		})
	}
	return chunks
}

// newlineOffsets returns the byte offsets of every '\n' in text, ascending.
func newlineOffsets(text string) []int {
	var offs []int
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offs = append(offs, i)
		}
	}
	return offs
}

// countBefore counts how many offsets are strictly below pos.
func countBefore(offs []int, pos int) int {
	return sort.SearchInts(offs, pos)
}
