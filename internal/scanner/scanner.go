package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// ErrNoSources reports that a scan found nothing to analyze. It is a normal
// outcome for empty or unsupported trees, not a failure of the scan itself.
var ErrNoSources = errors.New("no supported source files found")

// supportedExts is the fixed cross-language set used for graph scanning.
var supportedExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".java": true, ".cpp": true,
	".c": true, ".go": true, ".rb": true, ".php": true, ".rs": true,
	".kt": true, ".m": true, ".swift": true, ".html": true, ".css": true,
}

// binaryExts is excluded from full-text indexing (ScanAll).
var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".pdf": true,
	".zip": true, ".lock": true, ".ico": true, ".ttf": true, ".woff": true,
	".woff2": true,
}

// File is one source file captured during a scan. Path is relative to the
// scan root and slash-separated so node ids and citations are stable across
// platforms.
type File struct {
	Path string
	Text string
}

// Options tunes a scan.
type Options struct {
	// Workers bounds parallel file reads. Zero means GOMAXPROCS.
	Workers int
	// MaxFileBytes truncates files longer than this many bytes. Zero means
	// no limit.
	MaxFileBytes int
}

// Scan walks root and returns every readable file with a supported source
// extension, in directory-walk order. Unreadable files are skipped.
func Scan(root string) ([]File, error) {
	return scan(root, supportedExts, false, Options{})
}

// ScanAll walks root and returns every readable file except binary-like
// extensions, in directory-walk order. It backs the full-text chunk corpus.
func ScanAll(root string, opts Options) ([]File, error) {
	return scan(root, nil, true, opts)
}

func scan(root string, keep map[string]bool, excludeBinary bool, opts Options) ([]File, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	ignore := loadIgnore(root)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directory: skip its subtree, keep walking.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && ignore != nil && ignore.MatchesPath(rel+"/") {
				return fs.SkipDir
			}
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(rel))
		if excludeBinary {
			if binaryExts[ext] {
				return nil
			}
		} else if !keep[ext] {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	if len(paths) == 0 {
		return nil, ErrNoSources
	}

	files := readAll(root, paths, opts)
	if len(files) == 0 {
		return nil, ErrNoSources
	}
	return files, nil
}

// readAll reads paths concurrently, preserving enumeration order and dropping
// entries that cannot be read.
func readAll(root string, paths []string, opts Options) []File {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*File, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				return nil
			}
			if opts.MaxFileBytes > 0 && len(data) > opts.MaxFileBytes {
				data = data[:opts.MaxFileBytes]
			}
			results[i] = &File{Path: rel, Text: sanitize(data)}
			return nil
		})
	}
	// Workers never return errors; they record skips as nil slots.
	_ = g.Wait()

	files := make([]File, 0, len(paths))
	for _, f := range results {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files
}

// sanitize converts raw bytes to a string, dropping invalid UTF-8 sequences.
func sanitize(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}

func loadIgnore(root string) *gitignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	ign, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return ign
}
