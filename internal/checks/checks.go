package checks

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Test types accepted in a suite.
const (
	TypeFileExists   = "file_exists"
	TypeGlobExists   = "glob_exists"
	TypeFileContains = "file_contains"
	TypeGrepCount    = "grep_count"
)

// Test is one declarative check run against a project root. Which fields
// apply depends on Type: file_exists and file_contains use Path, glob_exists
// uses Glob, grep_count uses Path, Pattern and CountMin.
type Test struct {
	ID          string `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	Glob        string `json:"glob,omitempty" yaml:"glob,omitempty"`
	Pattern     string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	CountMin    int    `json:"count_min,omitempty" yaml:"count_min,omitempty"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Suite is an ordered list of tests.
type Suite struct {
	Tests []Test `json:"tests" yaml:"tests"`
}

// Result is the outcome of one test. A failing test sets OK false; a test
// that could not run at all (bad pattern, unreadable file) also records the
// problem in Detail rather than aborting the suite.
type Result struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	OK          bool   `json:"ok"`
	Detail      string `json:"detail,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// LoadSuite reads a suite file from disk, JSON or YAML by extension.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	var s Suite
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing suite YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing suite JSON: %w", err)
		}
	}
	return &s, nil
}

// Run executes every test in the suite against root. One result per test,
// in suite order. Tests never abort each other: a broken pattern or missing
// file fails that test only.
func Run(root string, suite *Suite) []Result {
	if suite == nil {
		return nil
	}
	results := make([]Result, 0, len(suite.Tests))
	for _, t := range suite.Tests {
		r := Result{ID: t.ID, Type: t.Type, Explanation: t.Explanation}
		switch t.Type {
		case TypeFileExists:
			p := filepath.Join(root, t.Path)
			_, err := os.Stat(p)
			r.OK = err == nil
			r.Detail = p
		case TypeGlobExists:
			matches, err := doublestar.Glob(os.DirFS(root), t.Glob)
			if err != nil {
				r.Detail = fmt.Sprintf("bad glob: %v", err)
				break
			}
			sort.Strings(matches)
			r.OK = len(matches) > 0
			if len(matches) > 5 {
				matches = matches[:5]
			}
			r.Detail = strings.Join(matches, ",")
		case TypeFileContains:
			data, err := os.ReadFile(filepath.Join(root, t.Path))
			if err != nil {
				r.Detail = fmt.Sprintf("unreadable: %v", err)
				break
			}
			r.OK = strings.Contains(string(data), t.Pattern)
			r.Detail = fmt.Sprintf("found=%v", r.OK)
		case TypeGrepCount:
			countMin := t.CountMin
			if countMin < 1 {
				countMin = 1
			}
			re, err := regexp.Compile(t.Pattern)
			if err != nil {
				r.Detail = fmt.Sprintf("bad pattern: %v", err)
				break
			}
			data, err := os.ReadFile(filepath.Join(root, t.Path))
			if err != nil {
				r.Detail = fmt.Sprintf("unreadable: %v", err)
				break
			}
			cnt := len(re.FindAllString(string(data), -1))
			r.OK = cnt >= countMin
			r.Detail = fmt.Sprintf("count=%d", cnt)
		default:
			r.Detail = fmt.Sprintf("unknown test type %q", t.Type)
		}
		results = append(results, r)
	}
	return results
}

// NaiveQuality flags Python files that call print outside a script entry
// point. It is a cheap signal for leftover debug output, not a linter.
func NaiveQuality(root string) []string {
	var issues []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".py" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		code := string(data)
		if strings.Contains(code, "print(") && !strings.Contains(code, "if __name__") {
			issues = append(issues, fmt.Sprintf("Possible stray prints in %s", d.Name()))
		}
		return nil
	})
	sort.Strings(issues)
	return issues
}
