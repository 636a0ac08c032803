package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultSampleBytes bounds how much raw text Samples collects by default.
const DefaultSampleBytes = 80000

// sampleExts is the text-file set worth quoting in a reviewer prompt.
var sampleExts = map[string]bool{
	".md": true, ".txt": true, ".py": true, ".js": true, ".ts": true,
	".html": true, ".css": true,
}

// Summary is a flat listing of a project tree. Files are relative to Root,
// slash-separated and sorted.
type Summary struct {
	Root  string   `json:"root"`
	Files []string `json:"files"`
}

// ResolveRoot descends through wrapper directories that contain nothing but
// a single subdirectory. Extracted archives often wrap the real project in
// one or two levels of naming folders; reviews should start below them.
func ResolveRoot(root string) string {
	for {
		entries, err := os.ReadDir(root)
		if err != nil {
			return root
		}
		var dirs []string
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if !e.IsDir() {
				return root
			}
			dirs = append(dirs, e.Name())
		}
		if len(dirs) != 1 {
			return root
		}
		root = filepath.Join(root, dirs[0])
	}
}

// Overview lists every regular file under root.
func Overview(root string) (Summary, error) {
	s := Summary{Root: root, Files: []string{}}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		s.Files = append(s.Files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(s.Files)
	return s, nil
}

// Samples collects text-file contents under root in sorted path order until
// limitBytes is spent. The last file that crosses the budget is truncated
// rather than dropped, so small budgets still surface something. A
// limitBytes of zero or less uses DefaultSampleBytes.
func Samples(root string, limitBytes int) (map[string]string, error) {
	if limitBytes <= 0 {
		limitBytes = DefaultSampleBytes
	}
	overview, err := Overview(root)
	if err != nil {
		return nil, err
	}
	acc := make(map[string]string)
	remaining := limitBytes
	for _, rel := range overview.Files {
		if remaining <= 0 {
			break
		}
		if !sampleExts[strings.ToLower(filepath.Ext(rel))] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		chunk := string(data)
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
		}
		acc[rel] = chunk
		remaining -= len(chunk)
	}
	return acc, nil
}
