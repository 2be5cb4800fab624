package diag_test

import (
	"strings"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	bag := diag.NewBag(2)
	if !bag.Add(diag.NewError(diag.CmpMisplacedBreak, source.Span{Start: 10, End: 12}, "b")) {
		t.Fatal("first add rejected")
	}
	bag.Add(diag.NewError(diag.CmpOutOfScope, source.Span{Start: 2, End: 3}, "a"))
	if bag.Add(diag.NewError(diag.CmpUndefinedLabel, source.Span{}, "c")) {
		t.Fatal("add past the limit accepted")
	}
	bag.Sort()
	if got := bag.Items()[0].Code; got != diag.CmpOutOfScope {
		t.Errorf("first after sort = %s", got.ID())
	}
	if !bag.HasErrors() {
		t.Error("HasErrors = false")
	}
}

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.lm", []byte("var a;\nbreak;\n"))
	d := diag.NewError(diag.CmpMisplacedBreak, source.Span{File: id, Start: 7, End: 12}, "break outside of a loop").WithUnit("script")
	out := diag.FormatShort([]diag.Diagnostic{d}, fs, false)
	want := "main.lm:2:1: ERROR CMP3003 (script): break outside of a loop\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
	if !strings.Contains(diag.CmpOutOfScope.String(), "CMP3001") {
		t.Errorf("code string = %q", diag.CmpOutOfScope.String())
	}
}
