package ssa_test

import (
	"strings"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/parser"
	"lumen/internal/source"
	"lumen/internal/ssa"
)

func generate(t *testing.T, src string) (*ssa.Form, error) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.lm", []byte(src))
	bag := diag.NewBag(32)
	script, _ := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() > 0 {
		t.Fatalf("parse %q: %+v", src, bag.Items())
	}
	return ssa.Generate(script, ssa.Options{FoldConstants: true})
}

func compile(t *testing.T, src string) *ssa.Form {
	t.Helper()
	f, err := generate(t, src)
	if err != nil {
		t.Fatalf("generate %q: %v", src, err)
	}
	if err := ssa.Optimize(f); err != nil {
		t.Fatalf("optimize %q: %v", src, err)
	}
	if err := ssa.Validate(f); err != nil {
		t.Fatalf("validate %q: %v", src, err)
	}
	return f
}

func statements(f *ssa.Form, op ssa.Op) []*ssa.Statement {
	var out []*ssa.Statement
	for _, bid := range f.Order {
		for _, s := range f.Statements(f.Block(bid)) {
			if s.Op == op {
				out = append(out, s)
			}
		}
	}
	return out
}

func blockNamed(t *testing.T, f *ssa.Form, name string) *ssa.Block {
	t.Helper()
	for _, bid := range f.Order {
		if b := f.Block(bid); b.Name == name {
			return b
		}
	}
	t.Fatalf("no live block %q in %s", name, f.Name)
	return nil
}

func TestScopeErrorFromSiblingBranch(t *testing.T) {
	_, err := generate(t, `function f(a) { if (a) var x = 1; else return x; return 0; }`)
	ce, ok := ssa.AsCompileError(err)
	if !ok {
		t.Fatalf("want compile error, got %v", err)
	}
	if ce.Code != diag.CmpOutOfScope {
		t.Fatalf("code = %s, want %s", ce.Code.ID(), diag.CmpOutOfScope.ID())
	}
	if !strings.Contains(ce.Message, "'x'") || ce.Unit != "f" {
		t.Fatalf("unexpected error %q in unit %q", ce.Message, ce.Unit)
	}
}

func TestBranchMergeBecomesCopies(t *testing.T) {
	root := compile(t, `function f(a) { var x; if (a) { x = 1; } else { x = 2; } return x; }`)
	f := root.Children[0]
	if got := len(statements(f, ssa.OpPhi)); got != 0 {
		t.Fatalf("%d phis survived elimination", got)
	}
	lastCopy := func(name string) *ssa.Statement {
		b := blockNamed(t, f, name)
		term := f.Terminator(b)
		if term == nil || term.Op != ssa.OpJump {
			t.Fatalf("%s does not end in a jump", name)
		}
		prev := f.Statements(b)
		s := prev[len(prev)-2]
		if s.Op != ssa.OpAssign {
			t.Fatalf("%s: statement before jump is %s, want assign", name, s.Op)
		}
		return s
	}
	onTrue := lastCopy("if true")
	onFalse := lastCopy("if false")
	if onTrue.Declared != onFalse.Declared {
		t.Fatalf("branches copy into %s and %s", f.Var(onTrue.Declared), f.Var(onFalse.Declared))
	}
	src := func(s *ssa.Statement) string {
		return f.Var(f.Stmts[f.Var(s.Used[0]).Decl].Used[0]).String()
	}
	if src(onTrue) == src(onFalse) {
		t.Fatalf("both branches copy the same value %s", src(onTrue))
	}
	merges := 0
	defs := map[ssa.VarID]int{}
	for _, s := range statements(f, ssa.OpAssign) {
		defs[s.Declared]++
	}
	for _, n := range defs {
		if n > 1 {
			merges++
		}
	}
	if merges != 1 {
		t.Fatalf("want exactly one phi-derived merge, got %d", merges)
	}
	merge := blockNamed(t, f, "if merge")
	if !merge.LiveIn.Has(onTrue.Declared) {
		t.Fatal("merge variable not live into the merge block")
	}
}

func TestClosurePinsCapturedLocal(t *testing.T) {
	root := compile(t, `
function outer() {
	var counter = 0;
	return function () { counter++; return counter; };
}`)
	outer := root.Children[0]
	if len(outer.PinnedNames) != 1 || !strings.HasPrefix(outer.PinnedNames[0], "counter#") {
		t.Fatalf("pinned = %v", outer.PinnedNames)
	}
	if n := len(statements(outer, ssa.OpWrite)); n != 1 {
		t.Fatalf("outer has %d shared writes, want 1", n)
	}
	inner := outer.Children[0]
	reads := statements(inner, ssa.OpParentRead)
	writes := statements(inner, ssa.OpParentWrite)
	if len(reads) != 2 || len(writes) != 1 {
		t.Fatalf("inner parent reads=%d writes=%d", len(reads), len(writes))
	}
	for _, s := range append(reads, writes...) {
		if s.Access != ssa.ViaSharedFrame || s.Owner != outer {
			t.Fatalf("%s does not go through outer's shared frame", inner.FormatStatement(s))
		}
	}
}

func TestLazyBlockRecordsAccesses(t *testing.T) {
	root := compile(t, `var total = 0; var unused = 5; each(list) { |x| total += x; }; return total;`)
	blk := root.Children[0]
	if blk.Kind != ssa.FormLazyBlock {
		t.Fatalf("child kind = %s", blk.Kind)
	}
	if got := blk.Access.Reads; len(got) != 1 || got[0] != "total" {
		t.Fatalf("reads = %v", got)
	}
	if got := blk.Access.Writes; len(got) != 1 || got[0] != "total" {
		t.Fatalf("writes = %v", got)
	}
	if len(root.PinnedNames) != 0 {
		t.Fatalf("lazy block access pinned %v", root.PinnedNames)
	}
	cw := statements(root, ssa.OpChildWrite)
	cr := statements(root, ssa.OpChildRead)
	if len(cw) != 1 || len(cr) != 1 || cw[0].Name != "total" || cr[0].Name != "total" {
		t.Fatalf("child writes %d, child reads %d", len(cw), len(cr))
	}
	if n := len(statements(root, ssa.OpEndAccessMap)); n != 1 {
		t.Fatalf("%d access map ends", n)
	}
}

func TestTryPinsVariablesWrittenInBody(t *testing.T) {
	root := compile(t, `var x = 1; var y = 1; try { x = 2; fail(); } catch (e) { return x + y; } return 0;`)
	if len(root.PinnedNames) != 1 || !strings.HasPrefix(root.PinnedNames[0], "x#") {
		t.Fatalf("pinned = %v", root.PinnedNames)
	}
	enter := statements(root, ssa.OpEnterTry)
	exit := statements(root, ssa.OpExitTry)
	if len(enter) != 1 || len(exit) != 1 || enter[0].Index != exit[0].Index {
		t.Fatalf("try bracket: %d enter, %d exit", len(enter), len(exit))
	}
	handler := root.Block(enter[0].Catch)
	if len(handler.ExcPreds) == 0 {
		t.Fatal("catch block has no exception predecessors")
	}
}

func TestBreakInsideTryExitsIt(t *testing.T) {
	root := compile(t, `while (true) { try { break; } catch (e) {} }`)
	if n := len(statements(root, ssa.OpExitTry)); n != 1 {
		t.Fatalf("%d exit-try markers survive; want the one before break", n)
	}
}

func TestConstantFolding(t *testing.T) {
	root := compile(t, `return (1 + 2) * 3 - -4;`)
	if n := len(statements(root, ssa.OpBinary)) + len(statements(root, ssa.OpUnary)); n != 0 {
		t.Fatalf("%d operations left unfolded", n)
	}
	ret := statements(root, ssa.OpReturn)[0]
	v := root.Var(ret.Used[0])
	if !v.IsConst || v.Const.AsInt() != 13 {
		t.Fatalf("return operand = %s", v)
	}
	root = compile(t, `return 1 \ 0;`)
	if n := len(statements(root, ssa.OpBinary)); n != 1 {
		t.Fatal("division by zero must be left to run time")
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{`break;`, diag.CmpMisplacedBreak},
		{`switch (1) { case 1: continue; }`, diag.CmpMisplacedContinue},
		{`case 1: ;`, diag.CmpMisplacedCase},
		{`switch (1) { default: ; default: ; }`, diag.CmpDuplicateDefault},
		{`goto nowhere;`, diag.CmpUndefinedLabel},
		{`a: ; a: ;`, diag.CmpDuplicateLabel},
		{`function f(a) { g(*); }`, diag.CmpBadUnnamedExpand},
		{`function f() { return super.x; }`, diag.CmpBadSuper},
		{`try { goto out; } catch (e) {} out: ;`, diag.CmpLabelAcrossTry},
	}
	for _, tt := range tests {
		_, err := generate(t, tt.src)
		ce, ok := ssa.AsCompileError(err)
		if !ok {
			t.Errorf("%q: want %s, got %v", tt.src, tt.code.ID(), err)
			continue
		}
		if ce.Code != tt.code {
			t.Errorf("%q: code %s, want %s (%s)", tt.src, ce.Code.ID(), tt.code.ID(), ce.Message)
		}
	}
}

func TestWellFormedAfterPasses(t *testing.T) {
	programs := []string{
		`var sum = 0; for (var i = 0; i < 3; i++) { if (i == 1) continue; if (i == 5) break; sum += i; } return sum;`,
		`var i = 0; do { i++; } while (i < 10); return i;`,
		`var r; switch (3) { case 1: r = 1; break; case 3: r = 3; default: r = r + 1; } return r;`,
		`var a = 1, b = 2; [a, b] = [b, a]; return a && b || !a ? a : b;`,
		`class A { var v = 1; function get() { return this.v; } property p { getter { return 2; } setter (x) { this.v = x; } } }
		 class B extends A { function get() { return super.get() + 1; } }
		 var b = new B(); return b.get();`,
		`var n = 0; again: n++; if (n < 3) goto again; return n;`,
		`function f(a, rest*) { return g(...) + h(*rest); } function v(a, *) { return f(*); }`,
		`var o = %[ "k" => 1 ]; delete o.k; delete o["k"]; return o;`,
	}
	for _, src := range programs {
		root := compile(t, src)
		var b strings.Builder
		if err := ssa.Dump(&b, root); err != nil {
			t.Fatalf("dump: %v", err)
		}
		if !strings.Contains(b.String(), "(script)") {
			t.Fatalf("dump lacks the script form:\n%s", b.String())
		}
	}
}

func TestFailingConstantExpressionWarns(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.lm", []byte(`var a = 7 % 0; return a + 1;`))
	script, _ := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: diag.NewBag(8)}})
	var warnings []*ssa.CompileError
	root, err := ssa.Compile(script, ssa.Options{
		FoldConstants: true,
		Warn:          func(w *ssa.CompileError) { warnings = append(warnings, w) },
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != diag.CmpConstantFold {
		t.Fatalf("warnings = %+v", warnings)
	}
	if n := len(statements(root, ssa.OpBinary)); n != 2 {
		t.Fatalf("%d binary statements, want the unfolded %% and the +", n)
	}
}
