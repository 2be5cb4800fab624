package parser_test

import (
	"path/filepath"
	"testing"

	"lumen/internal/ast"
	"lumen/internal/diag"
	"lumen/internal/parser"
	"lumen/internal/source"
	"lumen/internal/testkit"
	"lumen/internal/value"
)

func parse(t *testing.T, src string) (*ast.Script, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.lm", []byte(src))
	bag := diag.NewBag(32)
	script, _ := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return script, bag
}

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, bag := parse(t, src)
	if bag.Len() > 0 {
		t.Fatalf("unexpected diagnostics for %q: %+v", src, bag.Items())
	}
	return script
}

func TestPrecedence(t *testing.T) {
	script := mustParse(t, "x = 1 + 2 * 3 < 7 && y;")
	as := script.Body[0].(*ast.ExprStmt).X.(*ast.Assign)
	and, ok := as.Value.(*ast.Logical)
	if !ok || !and.And {
		t.Fatalf("top of rhs is %T, want &&", as.Value)
	}
	lt := and.X.(*ast.Binary)
	if lt.Op != value.BinLt {
		t.Fatalf("want <, got %s", lt.Op)
	}
	add := lt.X.(*ast.Binary)
	if add.Op != value.BinAdd {
		t.Fatalf("want +, got %s", add.Op)
	}
	if mul := add.Y.(*ast.Binary); mul.Op != value.BinMul {
		t.Fatalf("want *, got %s", mul.Op)
	}
}

func TestCallForms(t *testing.T) {
	script := mustParse(t, `f(...); g(*arr, 1); h(*); each(list) { |x| total += x; }; run() { || n++; };`)
	omit := script.Body[0].(*ast.ExprStmt).X.(*ast.Call)
	if !omit.Omit {
		t.Error("f(...) not marked as omitted")
	}
	exp := script.Body[1].(*ast.ExprStmt).X.(*ast.Call)
	if !exp.Args[0].Expand || exp.Args[1].Expand {
		t.Errorf("expand flags = %v,%v", exp.Args[0].Expand, exp.Args[1].Expand)
	}
	unnamed := script.Body[2].(*ast.ExprStmt).X.(*ast.Call)
	if len(unnamed.Args) != 1 || unnamed.Args[0].Value != nil || !unnamed.Args[0].Expand {
		t.Errorf("h(*) args = %+v", unnamed.Args)
	}
	blk := script.Body[3].(*ast.ExprStmt).X.(*ast.Call)
	if blk.Block == nil || len(blk.Block.Params) != 1 || blk.Block.Params[0] != "x" {
		t.Fatalf("lazy block = %+v", blk.Block)
	}
	if noParams := script.Body[4].(*ast.ExprStmt).X.(*ast.Call); noParams.Block == nil {
		t.Error("{|| ...} block not attached")
	}
}

func TestFunctionAndClass(t *testing.T) {
	script := mustParse(t, `
function f(a, b, rest*) { return a; }
function g(x, *) { return h(*); }
class Point extends Base {
	var origin = 0;
	function initialize(x) { this.x = x; }
	property len {
		getter { return this.x; }
		setter (v) { this.x = v; }
	}
}`)
	f := script.Body[0].(*ast.FuncDecl).Func
	if f.Name != "f" || len(f.Params) != 2 || f.Collapse != "rest" {
		t.Errorf("f = %+v", f)
	}
	if g := script.Body[1].(*ast.FuncDecl).Func; !g.UnnamedTail {
		t.Error("g lost its unnamed tail")
	}
	cls := script.Body[2].(*ast.ClassDecl)
	if cls.Name != "Point" || cls.Super == nil || len(cls.Body) != 3 {
		t.Fatalf("class = %+v", cls)
	}
	prop := cls.Body[2].(*ast.PropertyDecl)
	if prop.Getter == nil || prop.Setter == nil || prop.Setter.Params[0] != "v" {
		t.Errorf("property = %+v", prop)
	}
}

func TestStatements(t *testing.T) {
	script := mustParse(t, `
for (var i = 0; i < 3; i++) { if (i == 1) continue; else break; }
do { x--; } while (x > 0);
switch (x) { case 1: y = 1; break; default: y = 2; }
try { throw 5; } catch (e) { r = e; }
again: goto again;
[a, b] = [b, a];
delete o.k;
`)
	kinds := []string{"*ast.For", "*ast.DoWhile", "*ast.Switch", "*ast.Try", "*ast.Label", "*ast.Goto", "*ast.ExprStmt", "*ast.ExprStmt"}
	if len(script.Body) != len(kinds) {
		t.Fatalf("got %d statements, want %d", len(script.Body), len(kinds))
	}
	sw := script.Body[2].(*ast.Switch)
	if len(sw.Body) != 5 {
		t.Errorf("switch body has %d statements, want 5", len(sw.Body))
	}
	if _, ok := script.Body[7].(*ast.ExprStmt).X.(*ast.Delete); !ok {
		t.Error("delete not parsed")
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{"1 = 2;", diag.SynInvalidLValue},
		{"var = 3;", diag.SynExpectIdentifier},
		{"f(1, 2;", diag.SynUnclosedParen},
		{"class C { return 1; }", diag.SynBadClassMember},
		{"function f(a*, b) {}", diag.SynBadParameter},
	}
	for _, tt := range tests {
		_, bag := parse(t, tt.src)
		if bag.Len() == 0 {
			t.Errorf("%q: no diagnostics", tt.src)
			continue
		}
		if got := bag.Items()[0].Code; got != tt.code {
			t.Errorf("%q: first code %s, want %s", tt.src, got.ID(), tt.code.ID())
		}
	}
}

func TestSpansStayInsideScript(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "testdata", "*.lm"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no testdata scripts")
	}
	for _, path := range paths {
		fs := source.NewFileSet()
		id, err := fs.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		bag := diag.NewBag(32)
		script, _ := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		if bag.Len() > 0 {
			t.Fatalf("%s: %+v", path, bag.Items())
		}
		if err := testkit.CheckSpanInvariants(script, fs.Get(id)); err != nil {
			t.Errorf("%s: %v", path, err)
		}
	}
}
