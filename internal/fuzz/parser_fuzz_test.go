package fuzztests

import (
	"context"
	"testing"
	"time"

	"lumen/internal/ast"
	"lumen/internal/bytecode"
	"lumen/internal/codegen"
	"lumen/internal/diag"
	"lumen/internal/parser"
	"lumen/internal/source"
	"lumen/internal/ssa"
	"lumen/internal/testkit"
)

// parseTimeout bounds one parse; exceeding it means a recovery loop.
const parseTimeout = 5 * time.Second

func parse(input []byte) (*ast.Script, *source.File, *diag.Bag) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("fuzz.lm", input))
	bag := diag.NewBag(128)
	script, _ := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 128})
	return script, file, bag
}

func FuzzParserNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("function f() { { { { } } } }"))
	f.Add([]byte("for (var i = 0 i < 10 i++) {}"))
	f.Add([]byte("class { property { getter"))

	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		input = append([]byte(nil), input...)
		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			script, file, _ := parse(input)
			done <- testkit.CheckSpanInvariants(script, file)
		}()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("span invariants: %v\ninput: %q", err, truncateForLog(input, 200))
			}
		case <-ctx.Done():
			t.Fatalf("parser hang: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// FuzzPipeline compiles every input that parses cleanly. Compile errors are
// fine; panics and unverifiable bytecode are not.
func FuzzPipeline(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		script, file, bag := parse(clampSeed(input))
		if bag.HasErrors() {
			return
		}
		for _, fold := range []bool{false, true} {
			form, err := ssa.Compile(script, ssa.Options{FoldConstants: fold})
			if err != nil {
				if _, ok := ssa.AsCompileError(err); !ok {
					t.Fatalf("ssa: %v", err)
				}
				return
			}
			unit, err := codegen.Generate(form)
			if err != nil {
				t.Fatalf("codegen: %v", err)
			}
			prog, err := bytecode.Fixup(unit, file.Path, file.LineIdx)
			if err != nil {
				t.Fatalf("fixup: %v", err)
			}
			for _, u := range prog.Units {
				if err := bytecode.Verify(u, len(prog.Units)); err != nil {
					t.Fatalf("verify %s: %v", u.Name, err)
				}
			}
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], "..."...)
}
