package review

import (
	"strings"
	"testing"
)

func TestBuildUserPrompt(t *testing.T) {
	packed := "Graph relations (abbreviated):\nfile::main.py : contains->function::main.py::main\n\n=== file | main.py | main.py ===\n[lines 1-2]\n1: import os\n2: print(os.getcwd())\n"

	prompt := BuildUserPrompt(packed, "A CLI tool", 50, "high", nil)

	if !strings.Contains(prompt, "BEGIN CONTEXT") {
		t.Error("Prompt should contain context markers")
	}
	if !strings.Contains(prompt, packed) {
		t.Error("Prompt should contain the packed context")
	}
	if !strings.Contains(prompt, "50 findings") {
		t.Error("Prompt should mention max findings")
	}
	if !strings.Contains(prompt, "high") {
		t.Error("Prompt should mention fail-on severity")
	}
	if !strings.Contains(prompt, "A CLI tool") {
		t.Error("Prompt should carry the project description")
	}
}

func TestBuildUserPrompt_NoMaxFindings(t *testing.T) {
	prompt := BuildUserPrompt("some context", "", 0, "none", nil)
	if strings.Contains(prompt, "findings") {
		t.Error("Prompt should not mention max findings when 0")
	}
}

func TestBuildUserPrompt_ChecklistSection(t *testing.T) {
	cl := &Checklist{
		Items: []ChecklistItem{{ID: "R001", Text: "No hard-coded credentials"}},
		Focus: []string{"security"},
	}
	prompt := BuildUserPrompt("ctx", "", 0, "none", cl)
	if !strings.Contains(prompt, "[R001] No hard-coded credentials") {
		t.Error("Prompt should list checklist items")
	}
	if !strings.Contains(prompt, "Focus areas: security") {
		t.Error("Prompt should carry focus areas")
	}
}

func TestSystemPrompt(t *testing.T) {
	sp := SystemPrompt()
	if !strings.Contains(sp, "JSON") {
		t.Error("System prompt should mention JSON output")
	}
	if !strings.Contains(sp, "severity") {
		t.Error("System prompt should mention severity")
	}
	if !strings.Contains(sp, "line numbers") {
		t.Error("System prompt should anchor findings to block line numbers")
	}
}

func TestBuildBatchPrompt(t *testing.T) {
	prompt := BuildBatchPrompt("batch content", "", nil, 2, 4)
	if !strings.Contains(prompt, "batch 2 of 4") {
		t.Error("Prompt should name the batch position")
	}
	if !strings.Contains(prompt, "batch content") {
		t.Error("Prompt should contain the batch context")
	}
	if !strings.Contains(prompt, "Summarize") {
		t.Error("Batch prompt should ask for an interim summary")
	}
}

func TestBuildAggregatePrompt(t *testing.T) {
	prompt := BuildAggregatePrompt([]string{"first summary", "second summary"}, "", 25, nil)
	if !strings.Contains(prompt, "BATCH 1 SUMMARY") || !strings.Contains(prompt, "BATCH 2 SUMMARY") {
		t.Error("Aggregate prompt should enumerate batch summaries")
	}
	if !strings.Contains(prompt, "first summary") || !strings.Contains(prompt, "second summary") {
		t.Error("Aggregate prompt should include summary text")
	}
	if !strings.Contains(prompt, "25 findings") {
		t.Error("Aggregate prompt should mention max findings")
	}
}

func TestBuildRulePrompt(t *testing.T) {
	item := ChecklistItem{ID: "R002", Text: "All SQL queries use parameter binding"}
	evidence := []string{
		RenderEvidence("db/queries.py", 10, 14, "cur.execute('SELECT * FROM t WHERE id=' + uid)"),
	}
	prompt := BuildRulePrompt(item, evidence)

	if !strings.Contains(prompt, "[R002] All SQL queries use parameter binding") {
		t.Error("Prompt should state the requirement")
	}
	if !strings.Contains(prompt, "=== db/queries.py [lines 10-14] ===") {
		t.Error("Prompt should cite evidence file and line range")
	}
	if !strings.Contains(prompt, "empty array") {
		t.Error("Prompt should allow an empty-array verdict")
	}
}
