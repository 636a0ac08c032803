package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Checklist is a set of review requirements loaded from --rules. Items drive
// the per-rule retrieval mode; Focus and SeverityOverrides shape the
// single-pass prompt and post-processing.
type Checklist struct {
	Items             []ChecklistItem   `json:"items"`
	Focus             []string          `json:"focus,omitempty"`
	SeverityOverrides map[string]string `json:"severityOverrides,omitempty"`
}

// ChecklistItem is one requirement to verify against the codebase.
type ChecklistItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// jsonRules is the JSON rules-pack layout.
type jsonRules struct {
	Focus             []string          `json:"focus,omitempty"`
	SeverityOverrides map[string]string `json:"severityOverrides,omitempty"`
	Required          []ChecklistItem   `json:"required,omitempty"`
}

// yamlRules accepts either a bare list of item strings or a mapping with an
// items key.
type yamlRules struct {
	Items             []yaml.Node       `yaml:"items"`
	Focus             []string          `yaml:"focus"`
	SeverityOverrides map[string]string `yaml:"severityOverrides"`
}

// LoadChecklist loads a checklist file from disk. The format is chosen by
// extension: .json for a rules pack, .yaml/.yml for a YAML list, anything
// else is treated as plain text with one requirement per line. Returns nil
// and nil error if path is empty.
func LoadChecklist(path string) (*Checklist, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONRules(data)
	case ".yaml", ".yml":
		return parseYAMLRules(data)
	default:
		return ParseChecklistText(string(data)), nil
	}
}

func parseJSONRules(data []byte) (*Checklist, error) {
	var raw jsonRules
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	cl := &Checklist{
		Focus:             raw.Focus,
		SeverityOverrides: raw.SeverityOverrides,
		Items:             raw.Required,
	}
	fillItemIDs(cl)
	return cl, nil
}

func parseYAMLRules(data []byte) (*Checklist, error) {
	// Try a bare list of strings first.
	var items []string
	if err := yaml.Unmarshal(data, &items); err == nil {
		cl := &Checklist{}
		for _, text := range items {
			if strings.TrimSpace(text) == "" {
				continue
			}
			cl.Items = append(cl.Items, ChecklistItem{Text: strings.TrimSpace(text)})
		}
		fillItemIDs(cl)
		return cl, nil
	}

	var raw yamlRules
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	cl := &Checklist{
		Focus:             raw.Focus,
		SeverityOverrides: raw.SeverityOverrides,
	}
	for _, node := range raw.Items {
		switch node.Kind {
		case yaml.ScalarNode:
			if strings.TrimSpace(node.Value) != "" {
				cl.Items = append(cl.Items, ChecklistItem{Text: strings.TrimSpace(node.Value)})
			}
		case yaml.MappingNode:
			var item ChecklistItem
			if err := node.Decode(&item); err != nil {
				return nil, fmt.Errorf("parsing rules item: %w", err)
			}
			if item.Text != "" {
				cl.Items = append(cl.Items, item)
			}
		}
	}
	fillItemIDs(cl)
	return cl, nil
}

var bulletPat = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)

// ParseChecklistText splits plain text into checklist items, one per
// non-empty line, stripping bullet and numbering prefixes.
func ParseChecklistText(text string) *Checklist {
	cl := &Checklist{}
	for _, line := range strings.Split(text, "\n") {
		line = bulletPat.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cl.Items = append(cl.Items, ChecklistItem{Text: line})
	}
	fillItemIDs(cl)
	return cl
}

func fillItemIDs(cl *Checklist) {
	for i := range cl.Items {
		if cl.Items[i].ID == "" {
			cl.Items[i].ID = fmt.Sprintf("R%03d", i+1)
		}
	}
}

// Text renders the checklist as plain requirement lines for prompt use.
func (cl *Checklist) Text() string {
	if cl == nil || len(cl.Items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, item := range cl.Items {
		fmt.Fprintf(&b, "- [%s] %s\n", item.ID, item.Text)
	}
	return b.String()
}

// PromptSection returns additional prompt instructions derived from the
// checklist.
func (cl *Checklist) PromptSection() string {
	if cl == nil {
		return ""
	}

	var b strings.Builder

	if len(cl.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize findings in these areas.\n",
			strings.Join(cl.Focus, ", "))
	}

	if len(cl.SeverityOverrides) > 0 {
		b.WriteString("\nSeverity policy:\n")
		for cat, sev := range cl.SeverityOverrides {
			fmt.Fprintf(&b, "- %s findings should be rated as %s severity.\n", cat, sev)
		}
	}

	if len(cl.Items) > 0 {
		b.WriteString("\nRequirements checklist (always evaluate these):\n")
		b.WriteString(cl.Text())
	}

	return b.String()
}

// ApplySeverityOverrides post-processes findings to enforce severity
// overrides from the checklist.
func ApplySeverityOverrides(findings []Finding, cl *Checklist) []Finding {
	if cl == nil || len(cl.SeverityOverrides) == 0 {
		return findings
	}

	for i := range findings {
		cat := string(findings[i].Category)
		if override, ok := cl.SeverityOverrides[cat]; ok {
			findings[i].Severity = Severity(override)
			// Regenerate ID since severity change may affect dedup
			findings[i].ID = generateFindingID(findings[i])
		}
	}
	return findings
}
