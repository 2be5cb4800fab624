package vm_test

import (
	"bytes"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"lumen/internal/bytecode"
	"lumen/internal/codegen"
	"lumen/internal/diag"
	"lumen/internal/parser"
	"lumen/internal/source"
	"lumen/internal/ssa"
	"lumen/internal/value"
	"lumen/internal/vm"
)

func compile(t *testing.T, src string, fold bool) *bytecode.Program {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.lm", []byte(src)))
	bag := diag.NewBag(32)
	script, _ := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() > 0 {
		t.Fatalf("parse %q: %+v", src, bag.Items())
	}
	form, err := ssa.Compile(script, ssa.Options{Name: "main", FoldConstants: fold})
	if err != nil {
		t.Fatalf("ssa %q: %v", src, err)
	}
	unit, err := codegen.Generate(form)
	if err != nil {
		t.Fatalf("codegen %q: %v", src, err)
	}
	prog, err := bytecode.Fixup(unit, file.Path, file.LineIdx)
	if err != nil {
		t.Fatalf("fixup %q: %v", src, err)
	}
	return prog
}

func run(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	return vm.New(compile(t, src, true), vm.Options{Stdout: &bytes.Buffer{}}).Run()
}

func mustRun(t *testing.T, src string) value.Value {
	t.Helper()
	v, err := run(t, src)
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return v
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want value.Value
	}{
		{"branch true", `function f(a) { var x; if (a) { x = 1; } else { x = 2; } return x; } return f(true);`, value.Int(1)},
		{"branch false", `function f(a) { var x; if (a) { x = 1; } else { x = 2; } return x; } return f(0);`, value.Int(2)},
		{"loop", `var sum = 0; for (var i = 0; i < 3; i++) sum += i; return sum;`, value.Int(3)},
		{"loop continue break", `var sum = 0; for (var i = 0; i < 10; i++) { if (i == 1) continue; if (i == 4) break; sum += i; } return sum;`, value.Int(5)},
		{"counter", `function counter() { var c = 0; return function () { c++; return c; }; } var k = counter(); var a = k(); var b = k(); return a * 10 + b;`, value.Int(12)},
		{"try", `try { throw 5; } catch (e) { return e + 1; }`, value.Int(6)},
		{"try scope", `var r = 0; try { r = 1; } catch (e) { r = 2; } r = r + 10; return r;`, value.Int(11)},
		{"nested try", `try { try { throw 1; } catch (e) { throw e + 1; } } catch (e) { return e * 10; }`, value.Int(20)},
		{"catch across calls", `function boom() { throw "x"; } function mid() { boom(); return 1; } try { mid(); } catch (e) { return e; }`, value.Str("x")},
		{"destructuring", `var x; var y; [x, y] = [1, 2]; return x * 10 + y;`, value.Int(12)},
		{"swap", `var a = 1; var b = 2; [a, b] = [b, a]; return a * 10 + b;`, value.Int(21)},
		{"switch", `switch (3) { case 1: return 1; case 3: return 3; default: return 0; }`, value.Int(3)},
		{"switch default", `switch ("z") { case "a": return 1; default: return 0; }`, value.Int(0)},
		{"goto", `var i = 0; top: i++; if (i < 3) goto top; return i;`, value.Int(3)},
		{"do while", `var n = 0; do { n++; } while (n < 5); return n;`, value.Int(5)},
		{"dict", `var a = [1, 2, 3]; var d = %[ "k" => a ]; return d["k"][1] + d.k.length;`, value.Int(5)},
		{"delete", `var d = %[ "k" => 1, "j" => 2 ]; delete d.k; return typeof(d.k) + d.j;`, value.Str("void2")},
		{"string fast path", `var s = "héllo"; return s[1] + s.length;`, value.Str("é5")},
		{"array push pop", `var a = []; a.push(1, 2, 3); var last = a.pop(); return last * 10 + a.length;`, value.Int(32)},
		{"array extend", `var a = [1]; a[3] = 4; return typeof(a[2]) + a.length;`, value.Str("void4")},
		{"closure sees later writes", `var x = 1; function get() { return x; } x = 5; return get();`, value.Int(5)},
		{"sibling closures share", `function pair() { var n = 0; var inc = function () { n++; }; var get = function () { return n; }; return [inc, get]; } var p = pair(); p[0](); p[0](); return p[1]();`, value.Int(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, tt.src)
			if !value.StrictEqual(got, tt.want) {
				t.Errorf("got %s, want %s", got.Repr(), tt.want.Repr())
			}
		})
	}
}

func TestCallModes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want value.Value
	}{
		{"omit forwards exact count", `function n(rest*) { return rest.length; } function fwd(a, b, c) { return n(...); } return fwd(1, 2);`, value.Int(2)},
		{"omit forwards values", `function second(a, b) { return b; } function fwd(x, y) { return second(...); } return fwd(7, 9);`, value.Int(9)},
		{"expand", `function n(rest*) { return rest.length; } var arr = [1, 2, 3, 4]; return n(*arr);`, value.Int(4)},
		{"expand mixed", `function f(a, b, c) { return a * 100 + b * 10 + c; } var arr = [2, 3]; return f(1, *arr);`, value.Int(123)},
		{"unnamed tail", `function n(rest*) { return rest.length; } function g(x, *) { return n(*); } return g(1, 2, 3);`, value.Int(2)},
		{"missing params are void", `function f(a, b) { return typeof(b); } return f(1);`, value.Str("void")},
		{"too many arguments", `function f(a) { return a; } try { f(1, 2); } catch (e) { return e.name; }`, value.Str("TypeError")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, tt.src)
			if !value.StrictEqual(got, tt.want) {
				t.Errorf("got %s, want %s", got.Repr(), tt.want.Repr())
			}
		})
	}
}

func TestClasses(t *testing.T) {
	src := `
class A {
	var v = 1;
	function initialize(x) { this.x = x; }
	function get() { return this.v + this.x; }
}
class B extends A {
	function get() { return super.get() * 10; }
	property twice {
		getter { return this.x * 2; }
		setter (v) { this.x = v \ 2; }
	}
}
var b = new B(3);
var r = b.get();
b.twice = 10;
return r * 1000 + b.twice;`
	if got := mustRun(t, src); !value.StrictEqual(got, value.Int(40010)) {
		t.Errorf("got %s, want 40010", got.Repr())
	}
}

func TestReadOnlyProperty(t *testing.T) {
	src := `
class C { property k { getter { return 1; } } }
var c = new C();
try { c.k = 2; } catch (e) { return e.name + ":" + c.k; }`
	if got := mustRun(t, src); !value.StrictEqual(got, value.Str("TypeError:1")) {
		t.Errorf("got %s", got.Repr())
	}
}

func TestLazyBlocks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want value.Value
	}{
		{"copy out", `function each(list, f) { for (var i = 0; i < list.length; i++) f(list[i]); } var total = 0; each([1, 2, 3]) { |x| total += x; }; return total;`, value.Int(6)},
		{"copy in", `function once(f) { return f(); } var base = 40; return once() { || return base + 2; };`, value.Int(42)},
		{"outlived caller", `function keep(f) { return f; } var n = 1; var blk = keep() { || return n; }; try { blk(); } catch (e) { return e.name; }`, value.Str("TypeError")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, tt.src)
			if !value.StrictEqual(got, tt.want) {
				t.Errorf("got %s, want %s", got.Repr(), tt.want.Repr())
			}
		})
	}
}

func TestUncaughtExceptionCarriesTrace(t *testing.T) {
	_, err := run(t, "function boom() {\n  throw \"bad\";\n}\nfunction outer() { boom(); }\nouter();")
	var se *vm.ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *vm.ScriptError", err)
	}
	if !value.StrictEqual(se.Value, value.Str("bad")) {
		t.Errorf("value = %s", se.Value.Repr())
	}
	msg := se.Error()
	for _, want := range []string{`uncaught exception: "bad"`, "boom (test.lm:2)", "\n  at outer", "\n  at main"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q lacks %q", msg, want)
		}
	}
}

func TestUndefinedGlobal(t *testing.T) {
	got := mustRun(t, `try { missing(); } catch (e) { return e.name; }`)
	if !value.StrictEqual(got, value.Str("ReferenceError")) {
		t.Errorf("got %s", got.Repr())
	}
}

func TestCallDepthLimit(t *testing.T) {
	got := mustRun(t, `function r(n) { return r(n + 1); } try { r(0); } catch (e) { return e.name; }`)
	if !value.StrictEqual(got, value.Str("RangeError")) {
		t.Errorf("got %s", got.Repr())
	}
}

func TestDivisionByZeroIsCatchable(t *testing.T) {
	got := mustRun(t, `var z = 0; try { return 1 \ z; } catch (e) { return e.name; }`)
	if !value.StrictEqual(got, value.Str("ArithmeticError")) {
		t.Errorf("got %s", got.Repr())
	}
}

func TestPrintAndDefine(t *testing.T) {
	var out bytes.Buffer
	m := vm.New(compile(t, `print("a", 1, twice(21)); return typeof(print);`, true), vm.Options{Stdout: &out})
	m.Define("twice", func(_ *vm.Thread, _ value.Value, args []value.Value) (value.Value, error) {
		return value.Int(args[0].AsInt() * 2), nil
	})
	got, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "a 1 42\n" {
		t.Errorf("output = %q", out.String())
	}
	if !value.StrictEqual(got, value.Str("function")) {
		t.Errorf("typeof(print) = %s", got.Repr())
	}
}

func TestNativeThrow(t *testing.T) {
	m := vm.New(compile(t, `try { fail(); } catch (e) { return e.message; }`, true), vm.Options{})
	m.Define("fail", func(th *vm.Thread, _ value.Value, _ []value.Value) (value.Value, error) {
		return value.Void(), th.Throw("HostError", "no %s", "luck")
	})
	got, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if !value.StrictEqual(got, value.Str("no luck")) {
		t.Errorf("got %s", got.Repr())
	}
}

func TestConstantFoldingMatchesRuntime(t *testing.T) {
	exprs := []string{
		"1 + 2", "7 - 10", "6 * 7", "7 / 2", "7 \\ 2", "7 % 3", "6 & 3", "6 | 3", "6 ^ 3",
		"1 << 4", "-16 >> 2", "-1 >>> 60", "1 == 1.0", "1 != 2", "1 === 1.0", "\"a\" !== \"a\"",
		"1 < 2", "2 > 3", "2 <= 2", "\"b\" >= \"a\"", "\"x\" + 1", "-5", "!0", "~7", "+\"12\"",
		"1 && 0", "0 || 3", "true ? 1 : 2",
	}
	for _, e := range exprs {
		src := "return " + e + ";"
		folded, err := vm.New(compile(t, src, true), vm.Options{}).Run()
		if err != nil {
			t.Fatalf("%s folded: %v", e, err)
		}
		plain, err := vm.New(compile(t, src, false), vm.Options{}).Run()
		if err != nil {
			t.Fatalf("%s unfolded: %v", e, err)
		}
		if !value.Identical(folded, plain) {
			t.Errorf("%s: folded %s, runtime %s", e, folded.Repr(), plain.Repr())
		}
	}
}

func TestConcurrentClosureCalls(t *testing.T) {
	m := vm.New(compile(t, `
function make() {
	var base = 40;
	var hits = 0;
	return function (x) { hits++; return base + x; };
}
return make();`, true), vm.Options{})
	fn, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	var bad atomic.Int32
	var g errgroup.Group
	for w := range 8 {
		g.Go(func() error {
			for i := range 50 {
				got, err := m.Call(fn, value.Void(), value.Int(int64(w+i)))
				if err != nil {
					return err
				}
				if got.AsInt() != int64(40+w+i) {
					bad.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if n := bad.Load(); n != 0 {
		t.Errorf("%d calls returned wrong results", n)
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name string
		unit *bytecode.Unit
		code vm.FaultCode
	}{
		{"bad register", &bytecode.Unit{Name: "bad", Code: []int32{int32(bytecode.OpCopy), 0, 5}, NumRegisters: 1}, vm.FaultBadRegister},
		{"ran off", &bytecode.Unit{Name: "bad", Code: []int32{int32(bytecode.OpNop)}}, vm.FaultRanOff},
		{"bad opcode", &bytecode.Unit{Name: "bad", Code: []int32{999}}, vm.FaultBadOpcode},
		{"try mismatch", &bytecode.Unit{Name: "bad", Code: []int32{int32(bytecode.OpExitTry), 3}}, vm.FaultTryMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &bytecode.Program{SourceName: "bad.lm", Units: []*bytecode.Unit{tt.unit}}
			_, err := vm.New(p, vm.Options{}).Run()
			var f *vm.Fault
			if !errors.As(err, &f) {
				t.Fatalf("err = %v, want *vm.Fault", err)
			}
			if f.Code != tt.code {
				t.Errorf("code = %s, want %s", f.Code, tt.code)
			}
			if len(f.Backtrace) != 1 || f.Backtrace[0].Unit != "bad" {
				t.Errorf("backtrace = %+v", f.Backtrace)
			}
		})
	}
}

func TestInstructionTrace(t *testing.T) {
	var buf bytes.Buffer
	p := compile(t, "return 1;", true)
	if _, err := vm.New(p, vm.Options{Trace: vm.NewTracer(&buf)}).Run(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[depth=1] main ip=0000 const") || !strings.Contains(out, "ret") {
		t.Errorf("trace = %q", out)
	}
}
