package codegen_test

import (
	"strconv"
	"testing"

	"lumen/internal/bytecode"
	"lumen/internal/codegen"
	"lumen/internal/diag"
	"lumen/internal/parser"
	"lumen/internal/source"
	"lumen/internal/ssa"
	"lumen/internal/value"
)

func build(t *testing.T, src string, fold bool) *bytecode.Program {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.lm", []byte(src))
	bag := diag.NewBag(32)
	file := fs.Get(id)
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
	for _, u := range prog.Units {
		if err := bytecode.Verify(u, len(prog.Units)); err != nil {
			t.Fatalf("verify %q: %v", src, err)
		}
	}
	return prog
}

func unitOfKind(t *testing.T, p *bytecode.Program, kind bytecode.Kind) *bytecode.Unit {
	t.Helper()
	for _, u := range p.Units {
		if u.Kind == kind {
			return u
		}
	}
	t.Fatalf("no %s unit", kind)
	return nil
}

// instructions decodes u into (pc, opcode) pairs.
func instructions(t *testing.T, u *bytecode.Unit) map[int]bytecode.Opcode {
	t.Helper()
	out := make(map[int]bytecode.Opcode)
	for pc := 0; pc < len(u.Code); {
		w, err := bytecode.Width(u.Code, pc)
		if err != nil {
			t.Fatalf("%s: %v", u.Name, err)
		}
		out[pc] = bytecode.Opcode(u.Code[pc])
		pc += w
	}
	return out
}

var programs = []string{
	`var a = 1; var b = 2; return a + b * 3;`,
	`function f(a) { var x; if (a) { x = 1; } else { x = 2; } return x; } return f(true) + f(false);`,
	`var sum = 0; for (var i = 0; i < 3; i++) { if (i == 1) continue; sum += i; } return sum;`,
	`function counter() { var c = 0; return function () { c++; return c; }; } var k = counter(); k(); return k();`,
	`try { throw 5; } catch (e) { return e + 1; }`,
	`function each(f) { return f(1); } var s = 0; each() { |x| s = s + x; }; return s;`,
	`class A { var v = 1; function get() { return this.v; } } var a = new A(); return a.get();`,
	`var a = [1, 2, 3]; var d = %[ "k" => a ]; var x; var y; [x, y] = a; return d["k"][x] + y;`,
	`function f(a, rest*) { return g(*rest); } function g(*) { return h(*); } function h(x) { return x; } return f(1, 2);`,
	`var i = 0; top: i++; if (i < 3) goto top; return i;`,
	`switch (3) { case 1: return 1; case 3: return 3; default: return 0; }`,
}

func TestRegistersStayWithinBudget(t *testing.T) {
	for _, src := range programs {
		p := build(t, src, true)
		for _, u := range p.Units {
			if u.NumRegisters < u.RegisterBase {
				t.Errorf("%s: %d registers below base %d", u.Name, u.NumRegisters, u.RegisterBase)
			}
			for pc, op := range instructions(t, u) {
				info, _ := bytecode.LookupInfo(op)
				for i, kind := range info.Operands {
					r := u.Code[pc+1+i]
					if kind != bytecode.Reg || r < 0 {
						continue
					}
					if int(r) < u.RegisterBase || int(r) >= u.NumRegisters {
						t.Errorf("%q %s@%d: r%d outside [%d,%d)", src, u.Name, pc, r, u.RegisterBase, u.NumRegisters)
					}
				}
			}
		}
	}
}

func TestStraightLineCodeReusesRegisters(t *testing.T) {
	p := build(t, `function f(a, b) { return a * 2 + b * 3 + a * 4 + b * 5 + a * 6; } return f(1, 2);`, true)
	for _, u := range p.Units {
		if u.Name == "f" && u.NumRegisters > 5 {
			t.Fatalf("f uses %d registers", u.NumRegisters)
		}
	}
}

func TestConstantPoolReusesRecentEntries(t *testing.T) {
	p := build(t, `var a = 7; var b = 7; var c = "x"; var d = "x"; return a + b + c + d;`, false)
	u := p.Units[p.Entry]
	sevens, xs := 0, 0
	for _, c := range u.Consts {
		if value.StrictEqual(c, value.Int(7)) {
			sevens++
		}
		if value.StrictEqual(c, value.Str("x")) {
			xs++
		}
	}
	if sevens != 1 || xs != 1 {
		t.Fatalf("pool %v: want one 7 and one \"x\"", u.Consts)
	}
}

func TestConstantPoolWindow(t *testing.T) {
	src := ""
	for i := 0; i <= 20; i++ {
		src += "print(" + strconv.Itoa(i) + ");\n"
	}
	src += "print(0);\n"
	p := build(t, src, false)
	zeros := 0
	for _, c := range p.Units[p.Entry].Consts {
		if value.StrictEqual(c, value.Int(0)) {
			zeros++
		}
	}
	if zeros != 2 {
		t.Fatalf("got %d copies of 0, want 2 once it left the window", zeros)
	}
}

func TestNoJumpLandsOnJump(t *testing.T) {
	srcs := []string{
		`function f(a, b) { while (a) { if (b) { break; } else { continue; } } return 1; } return f(false, false);`,
		`function f(a) { if (a) { if (a) { } } return 2; } return f(1);`,
		programs[2],
		programs[10],
	}
	for _, src := range srcs {
		p := build(t, src, true)
		for _, u := range p.Units {
			ins := instructions(t, u)
			for pc, op := range ins {
				info, _ := bytecode.LookupInfo(op)
				for i, kind := range info.Operands {
					if kind != bytecode.Addr {
						continue
					}
					to := pc + int(u.Code[pc+1+i])
					if ins[to] == bytecode.OpJump {
						t.Errorf("%q %s@%d: jumps to a jump at %d", src, u.Name, pc, to)
					}
				}
			}
		}
	}
}

func TestLazyBlockRegistersStartAboveCaller(t *testing.T) {
	p := build(t, programs[5], true)
	blk := unitOfKind(t, p, bytecode.KindBlock)
	main := p.Units[p.Entry]
	if blk.RegisterBase != main.NumRegisters {
		t.Fatalf("block base %d, caller uses %d", blk.RegisterBase, main.NumRegisters)
	}
	fn := unitOfKind(t, p, bytecode.KindFunction)
	if fn.RegisterBase != 0 {
		t.Fatalf("function base %d", fn.RegisterBase)
	}
}

func TestUnusedExceptionHasNoRegister(t *testing.T) {
	p := build(t, `try { fail(); } catch (e) { return 1; } return 0;`, true)
	u := p.Units[p.Entry]
	for pc, op := range instructions(t, u) {
		if op == bytecode.OpEnterTry && u.Code[pc+2] != bytecode.NoReg {
			t.Fatalf("try at %d receives into r%d", pc, u.Code[pc+2])
		}
	}
}

func TestSharedSlotsAndNesting(t *testing.T) {
	p := build(t, programs[3], true)
	var counter, inner *bytecode.Unit
	for _, u := range p.Units {
		switch {
		case u.Name == "counter":
			counter = u
		case u.Kind == bytecode.KindFunction && u.NestLevel == 2:
			inner = u
		}
	}
	if counter == nil || inner == nil {
		t.Fatal("missing units")
	}
	if counter.NumSharedSlots != 1 {
		t.Fatalf("counter pins %d slots", counter.NumSharedSlots)
	}
	reads := 0
	for pc, op := range instructions(t, inner) {
		if op == bytecode.OpSharedRead {
			reads++
			if level := inner.Code[pc+2]; level != 1 {
				t.Fatalf("inner reads level %d", level)
			}
		}
	}
	if reads == 0 {
		t.Fatal("inner closure never reads the shared slot")
	}
}

func TestSourceMapLines(t *testing.T) {
	p := build(t, "var a = 1;\n\nthrow a;\n", true)
	u := p.Units[p.Entry]
	for pc, op := range instructions(t, u) {
		if op == bytecode.OpThrow {
			if line := p.Line(u, pc); line != 3 {
				t.Fatalf("throw on line %d", line)
			}
			return
		}
	}
	t.Fatal("no throw emitted")
}
