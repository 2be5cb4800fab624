package driver_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/driver"
	"lumen/internal/observ"
	"lumen/internal/trace"
	"lumen/internal/value"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileAndRun(t *testing.T) {
	ctx := context.Background()
	res, err := driver.CompileSource(ctx, "sum.lm", []byte(`var s = 0; for (var i = 1; i <= 4; i++) s += i; print("sum", s); return s;`), driver.Options{FoldConstants: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed() {
		t.Fatalf("compile failed: %+v", res.Bag.Items())
	}
	var out bytes.Buffer
	v, err := driver.Run(ctx, res.Program, driver.RunOptions{Stdout: &out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !value.StrictEqual(v, value.Int(10)) {
		t.Fatalf("result = %v, want 10", v)
	}
	if got := out.String(); got != "sum 10\n" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestCompileErrorBecomesDiagnostic(t *testing.T) {
	res, err := driver.CompileSource(context.Background(), "bad.lm", []byte(`break;`), driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Failed() || res.Program != nil {
		t.Fatal("expected a failed compile")
	}
	items := res.Bag.Items()
	if len(items) == 0 || items[0].Severity != diag.SevError {
		t.Fatalf("diagnostics = %+v", items)
	}
}

func TestSyntaxErrorStopsBeforeSSA(t *testing.T) {
	var phases []string
	res, err := driver.CompileSource(context.Background(), "bad.lm", []byte(`var = ;`), driver.Options{
		Observer: func(ev driver.PhaseEvent) {
			if ev.Status == driver.PhaseStart {
				phases = append(phases, ev.Name)
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected parse errors")
	}
	if strings.Join(phases, ",") != "parse" {
		t.Fatalf("phases = %v", phases)
	}
}

func TestConstantFoldWarning(t *testing.T) {
	res, err := driver.CompileSource(context.Background(), "w.lm", []byte(`return 1 % 0;`), driver.Options{FoldConstants: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed() {
		t.Fatalf("warnings must not fail the compile: %+v", res.Bag.Items())
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.CmpConstantFold || items[0].Severity != diag.SevWarning {
		t.Fatalf("diagnostics = %+v", items)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := writeScript(t, t.TempDir(), "main.lm", `function sq(x) { return x * x; } return sq(7);`)
	opts := driver.Options{FoldConstants: true, Cache: cache}

	first, err := driver.CompileFile(ctx, path, opts)
	if err != nil || first.Failed() {
		t.Fatalf("first compile: %v %+v", err, first.Bag.Items())
	}
	if first.Cached {
		t.Fatal("cold cache reported a hit")
	}
	second, err := driver.CompileFile(ctx, path, opts)
	if err != nil || second.Failed() {
		t.Fatalf("second compile: %v", err)
	}
	if !second.Cached || second.Form != nil {
		t.Fatal("expected the program from the cache")
	}
	v, err := driver.Run(ctx, second.Program, driver.RunOptions{Stdout: &bytes.Buffer{}})
	if err != nil || !value.StrictEqual(v, value.Int(49)) {
		t.Fatalf("cached program = %v, %v", v, err)
	}

	// Other options, other key.
	third, err := driver.CompileFile(ctx, path, driver.Options{Cache: cache})
	if err != nil || third.Cached {
		t.Fatalf("unfolded compile hit the folded entry: %v", err)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	fourth, err := driver.CompileFile(ctx, path, opts)
	if err != nil || fourth.Cached {
		t.Fatalf("dropped cache still hit: %v", err)
	}
}

func TestCacheKeepsSourceNamePerFile(t *testing.T) {
	ctx := context.Background()
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	const src = `function fail() { throw "boom"; } fail();`
	a := writeScript(t, dir, "a.lm", src)
	b := writeScript(t, dir, "b.lm", src)
	opts := driver.Options{Cache: cache}

	if _, err := driver.CompileFile(ctx, a, opts); err != nil {
		t.Fatal(err)
	}
	for _, pass := range []string{"cold", "warm"} {
		res, err := driver.CompileFile(ctx, b, opts)
		if err != nil || res.Failed() {
			t.Fatalf("%s: %v", pass, err)
		}
		if pass == "warm" && !res.Cached {
			t.Fatal("second compile of b.lm missed the cache")
		}
		if res.Program.SourceName != res.Path {
			t.Fatalf("%s: source name %q, want %q", pass, res.Program.SourceName, res.Path)
		}
		_, err = driver.Run(ctx, res.Program, driver.RunOptions{Stdout: &bytes.Buffer{}})
		if err == nil || !strings.Contains(err.Error(), "b.lm") || strings.Contains(err.Error(), "a.lm") {
			t.Fatalf("%s: trace names the wrong file: %v", pass, err)
		}
	}
}

func TestCachedCompileReplaysWarnings(t *testing.T) {
	ctx := context.Background()
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := writeScript(t, t.TempDir(), "w.lm", "var x = 2;\nreturn x + 1 % 0;")
	opts := driver.Options{FoldConstants: true, Cache: cache}

	type finding struct {
		code       diag.Code
		sev        diag.Severity
		msg, unit  string
		start, end uint32
	}
	collect := func(res *driver.Result) []finding {
		var out []finding
		for _, d := range res.Bag.Items() {
			if d.Primary.File != res.File.ID {
				t.Fatalf("diagnostic bound to file %d, want %d", d.Primary.File, res.File.ID)
			}
			out = append(out, finding{d.Code, d.Severity, d.Message, d.Unit, d.Primary.Start, d.Primary.End})
		}
		return out
	}

	cold, err := driver.CompileFile(ctx, path, opts)
	if err != nil || cold.Failed() {
		t.Fatalf("cold: %v", err)
	}
	warm, err := driver.CompileFile(ctx, path, opts)
	if err != nil || warm.Failed() {
		t.Fatalf("warm: %v", err)
	}
	if cold.Cached || !warm.Cached {
		t.Fatalf("cached cold=%t warm=%t", cold.Cached, warm.Cached)
	}
	want, got := collect(cold), collect(warm)
	if len(want) != 1 || want[0].code != diag.CmpConstantFold {
		t.Fatalf("cold diagnostics = %+v", want)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("warm diagnostics = %+v, want %+v", got, want)
	}
}

func TestCompileFilesParallel(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.lm", `return 1;`)
	writeScript(t, dir, "sub/b.lm", `return 2;`)
	writeScript(t, dir, "c.lm", `return 3;`)
	writeScript(t, dir, "notes.txt", `ignored`)

	paths, err := driver.ListScripts(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("scripts = %v", paths)
	}

	var mu sync.Mutex
	ends := 0
	timer := observ.NewTimer()
	results, err := driver.CompileFiles(context.Background(), paths, driver.Options{
		Jobs:  2,
		Timer: timer,
		Observer: func(ev driver.PhaseEvent) {
			if ev.Status == driver.PhaseEnd {
				mu.Lock()
				ends++
				mu.Unlock()
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int64{"a.lm": 1, "b.lm": 2, "c.lm": 3}
	for i, res := range results {
		if res.Failed() {
			t.Fatalf("%s failed: %+v", paths[i], res.Bag.Items())
		}
		v, err := driver.Run(context.Background(), res.Program, driver.RunOptions{Stdout: &bytes.Buffer{}})
		if err != nil {
			t.Fatal(err)
		}
		if !value.StrictEqual(v, value.Int(want[filepath.Base(paths[i])])) {
			t.Fatalf("%s returned %v", paths[i], v)
		}
	}
	if ends != 9 {
		t.Fatalf("phase ends = %d, want 3 files x 3 phases", ends)
	}
	if n := len(timer.Report().Phases); n != 9 {
		t.Fatalf("timer phases = %d", n)
	}
}

func TestCompileFilesMissingFile(t *testing.T) {
	_, err := driver.CompileFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope.lm")}, driver.Options{})
	if err == nil || !strings.Contains(err.Error(), "nope.lm") {
		t.Fatalf("err = %v", err)
	}
}

func TestCompileTraceSpans(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDetail, "s1")
	ctx := trace.WithTracer(context.Background(), ring)
	res, err := driver.CompileSource(ctx, "t.lm", []byte(`function f() { return 1; } return f();`), driver.Options{})
	if err != nil || res.Failed() {
		t.Fatalf("compile: %v", err)
	}
	if _, err := driver.Run(ctx, res.Program, driver.RunOptions{Stdout: &bytes.Buffer{}}); err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		names[ev.Name] = true
		if ev.Session != "s1" {
			t.Fatalf("event %q has session %q", ev.Name, ev.Session)
		}
	}
	for _, want := range []string{"compile", "parse", "ssa", "codegen", "unit:f", "run"} {
		if !names[want] {
			t.Errorf("no %q event in %v", want, names)
		}
	}
}

func TestWriteTimings(t *testing.T) {
	timer := observ.NewTimer()
	_ = timer.Measure("parse", func() error { return nil })

	var text bytes.Buffer
	if err := driver.WriteTimings(&text, "text", "main.lm", timer); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text.String(), "main.lm\n") || !strings.Contains(text.String(), "parse") {
		t.Fatalf("text = %q", text.String())
	}

	var doc bytes.Buffer
	if err := driver.WriteTimings(&doc, "yaml", "main.lm", timer); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.String(), "path: main.lm") {
		t.Fatalf("yaml = %q", doc.String())
	}
	if err := driver.WriteTimings(&doc, "xml", "", timer); err == nil {
		t.Fatal("unknown format accepted")
	}
}
