package ssa

import (
	"testing"

	"lumen/internal/source"
	"lumen/internal/value"
)

// lostCopyForm builds
//
//	entry: x0 = 0; jump loop
//	loop:  x = phi(x0, x1); x1 = x + 1; c = x1 < 3; branch c ? loop : exit
//	exit:  return x
//
// where the old x is still live at the end of loop when the back edge copies x1.
func lostCopyForm() (*Form, *Block, *Block) {
	f := newForm(newSession(Options{}), nil, FormScript, "lost", source.Span{})
	emit := func(b *Block, op Op, used ...VarID) *Statement {
		s := f.newStmt(op, source.Span{})
		f.insert(b, s, AtTail)
		for _, u := range used {
			f.use(s, u)
		}
		return s
	}
	link := func(from, to *Block) {
		from.Succs = append(from.Succs, to.ID)
		to.Preds = append(to.Preds, from.ID)
	}
	entry := f.Blocks[f.Entry]
	loop := f.addBlock("loop")
	exit := f.addBlock("exit")

	x0 := f.constant(emit(entry, OpAssignConst), value.Int(0))
	emit(entry, OpJump).Target = loop.ID
	link(entry, loop)

	phi := emit(loop, OpPhi)
	x := f.declare(phi, "x", "x#1")
	one := f.constant(emit(loop, OpAssignConst), value.Int(1))
	add := emit(loop, OpBinary, x, one)
	add.Bin = value.BinAdd
	x1 := f.declare(add, "x", "x#1")
	three := f.constant(emit(loop, OpAssignConst), value.Int(3))
	lt := emit(loop, OpBinary, x1, three)
	lt.Bin = value.BinLt
	c := f.declare(lt, "", "")
	br := emit(loop, OpBranch, c)
	br.True, br.False = loop.ID, exit.ID
	link(loop, loop)
	link(loop, exit)
	f.use(phi, x0)
	f.use(phi, x1)

	emit(exit, OpReturn, x)
	return f, loop, exit
}

func TestLostCopyGoesThroughTemporary(t *testing.T) {
	f, loop, _ := lostCopyForm()
	f.leapDeadBlocks()
	f.analyzeLiveness()
	if !loop.LiveOut.Has(f.Stmts[loop.First].Declared) {
		t.Fatal("phi variable should be live out of the loop block")
	}
	phiVar := f.Stmts[loop.First].Declared
	f.removePhiStatements()

	stmts := f.Statements(loop)
	head := stmts[0]
	if head.Op != OpAssign || head.Declared != phiVar {
		t.Fatalf("loop head = %s, want copy into the phi variable", f.FormatStatement(head))
	}
	tmp := head.Used[0]
	if tmp == phiVar {
		t.Fatal("head copies the variable onto itself")
	}
	tail := stmts[len(stmts)-2]
	if tail.Op != OpAssign || tail.Declared != tmp {
		t.Fatalf("back edge copy = %s, want copy into the temporary", f.FormatStatement(tail))
	}
	entry := f.Statements(f.Blocks[f.Entry])
	if c := entry[len(entry)-2]; c.Op != OpAssign || c.Declared != tmp {
		t.Fatalf("entry copy = %s, want copy into the temporary", f.FormatStatement(c))
	}
	if !loop.LiveIn.Has(tmp) || !loop.LiveOut.Has(tmp) {
		t.Fatal("temporary liveness not recorded on the back edge")
	}
	if errs := f.validate(); len(errs) > 0 {
		t.Fatalf("invalid after elimination: %v", errs)
	}
}

func TestPhiWithoutInterferenceCopiesDirectly(t *testing.T) {
	f, loop, exit := lostCopyForm()
	// Return the new value instead; the old one dies inside the loop.
	ret := f.Terminator(exit)
	f.Vars[ret.Used[0]].removeUse(ret.ID)
	ret.Used = nil
	newX := f.Stmts[f.Stmts[loop.First].Next].Next
	f.use(ret, f.Stmts[newX].Declared)

	f.leapDeadBlocks()
	f.analyzeLiveness()
	phiVar := f.Stmts[loop.First].Declared
	f.removePhiStatements()
	stmts := f.Statements(loop)
	if stmts[0].Op == OpAssign && stmts[0].Declared == phiVar {
		t.Fatal("non-interfering phi should not get a head copy")
	}
	if tail := stmts[len(stmts)-2]; tail.Declared != phiVar {
		t.Fatalf("back edge copy = %s, want direct copy", f.FormatStatement(tail))
	}
}
