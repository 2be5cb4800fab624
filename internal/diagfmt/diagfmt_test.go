package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/diagfmt"
	"lumen/internal/source"
)

func fixture(t *testing.T, content string, start, end uint32) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.lm", []byte(content))
	bag := diag.NewBag(8)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.CmpOutOfScope,
		Message:  "x is not visible here",
		Unit:     "main",
		Primary:  source.Span{File: id, Start: start, End: end},
		Notes:    []diag.Note{{Span: source.Span{File: id, Start: 0, End: 3}, Msg: "declared here"}},
	})
	return bag, fs
}

func TestPrettyAlignsCaretByWidth(t *testing.T) {
	src := "var x;\nprint(\"日本\", x);\n"
	off := uint32(strings.Index(src, "x);"))
	bag, fs := fixture(t, src, off, off+1)
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{ShowNotes: true})
	out := buf.String()
	if !strings.Contains(out, "demo.lm:2:") || !strings.Contains(out, "ERROR CMP3001: x is not visible here (in main)") {
		t.Fatalf("header missing:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	var code, caret string
	for i, l := range lines {
		if strings.Contains(l, "print(") {
			code, caret = l, lines[i+1]
		}
	}
	// 日本 occupies four cells but six bytes.
	codeCol := strings.Index(code, "print(") + len(`print("`) + 4 + len(`", `)
	if strings.Index(caret, "^") != codeCol {
		t.Errorf("caret at %d, want %d:\n%s\n%s", strings.Index(caret, "^"), codeCol, code, caret)
	}
	if !strings.Contains(out, "note: demo.lm:1:1: declared here") {
		t.Errorf("note missing:\n%s", out)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := fixture(t, "var x;\nx;\n", 7, 8)
	var buf bytes.Buffer
	if err := diagfmt.JSON(&buf, bag, fs, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Diagnostics[0].Code != "CMP3001" || out.Diagnostics[0].Location.StartLine != 2 {
		t.Errorf("output = %+v", out)
	}
	if len(out.Diagnostics[0].Notes) != 1 {
		t.Errorf("notes = %+v", out.Diagnostics[0].Notes)
	}
}

func TestSarif(t *testing.T) {
	bag, fs := fixture(t, "var x;\nx;\n", 7, 8)
	var buf bytes.Buffer
	if err := diagfmt.Sarif(&buf, bag, fs, diagfmt.SarifRunMeta{ToolName: "lumen", ToolVersion: "test", InvocationArgs: []string{"build"}}); err != nil {
		t.Fatal(err)
	}
	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Results []struct {
				RuleID string `json:"ruleId"`
				Level  string `json:"level"`
			} `json:"results"`
			Invocations []struct {
				ExecutionSuccessful bool `json:"executionSuccessful"`
			} `json:"invocations"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatal(err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 || len(log.Runs[0].Results) != 1 {
		t.Fatalf("log = %+v", log)
	}
	if r := log.Runs[0].Results[0]; r.RuleID != "CMP3001" || r.Level != "error" {
		t.Errorf("result = %+v", r)
	}
	if log.Runs[0].Invocations[0].ExecutionSuccessful {
		t.Error("run with errors reported as successful")
	}
}
