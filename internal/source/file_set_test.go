package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"lumen/internal/source"
)

func TestFileSetVersioning(t *testing.T) {
	fs := source.NewFileSet()
	id1 := fs.Add("test.lm", []byte("hello world"), 0)
	id2 := fs.Add("test.lm", []byte("hello universe"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}
	latest, ok := fs.GetLatest("test.lm")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("old content lost: %q", got)
	}
}

func TestResolveLines(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.lm", []byte("var a;\nvar b;\n\nreturn a;"))
	tests := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{6, 1, 7}, // the newline itself
		{7, 2, 1},
		{14, 3, 1},
		{15, 4, 1},
		{20, 4, 6},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(source.Span{File: id, Start: tt.off, End: tt.off})
		if start.Line != tt.line || start.Col != tt.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", tt.off, start.Line, start.Col, tt.line, tt.col)
		}
	}
	f := fs.Get(id)
	if got := f.GetLine(2); got != "var b;" {
		t.Errorf("GetLine(2) = %q", got)
	}
	if got := f.GetLine(4); got != "return a;" {
		t.Errorf("GetLine(4) = %q", got)
	}
	if got := f.GetLine(9); got != "" {
		t.Errorf("GetLine(9) = %q, want empty", got)
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.lm")
	// BOM + CRLF + decomposed "é"
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("var cafe\u0301 = 1;\r\nreturn 2;\r\n")...)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f := fs.Get(id)
	if f.Flags&source.FileHadBOM == 0 || f.Flags&source.FileNormalizedCRLF == 0 || f.Flags&source.FileNormalizedNFC == 0 {
		t.Errorf("flags = %b, want BOM|CRLF|NFC", f.Flags)
	}
	if got := f.GetLine(1); got != "var caf\u00e9 = 1;" {
		t.Errorf("line 1 = %q", got)
	}
}
