package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

var languageSeeds = []string{
	"",
	"return 0;",
	"var a = 1, b = 2; [a, b] = [b, a]; return a;",
	"function f(a, rest*) { return g(...) + h(*rest); }",
	"function v(a, *) { return f(*); }",
	"class A { var v = 1; property p { getter { return 2; } } } class B extends A { function get() { return super.get(); } }",
	"try { throw 1; } catch (e) { return e; }",
	"var n = 0; again: n++; if (n < 3) goto again;",
	"each(list) { |x| total += x; };",
	"switch (x) { case 1: break; default: }",
	"var o = %[ \"k\" => 1 ]; delete o.k; delete o[\"k\"];",
	"do { i++; } while (i < 10);",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".lm" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
