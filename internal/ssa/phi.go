package ssa

import "slices"

// removePhiStatements takes the form out of SSA. Each phi becomes one copy at
// the end of every predecessor. When the phi's variable is still live at the
// end of a predecessor, copying into it would clobber the value that
// predecessor still needs; such phis copy through a fresh temporary that is
// moved into the variable at the head of the merge block.
func (f *Form) removePhiStatements() {
	for _, bid := range f.Order {
		blk := f.Blocks[bid]
		var phis []*Statement
		for id := blk.First; id != NoStmt && f.Stmts[id].Op == OpPhi; id = f.Stmts[id].Next {
			phis = append(phis, f.Stmts[id])
		}
		for _, phi := range phis {
			f.eliminatePhi(blk, phi)
		}
	}
}

func (f *Form) eliminatePhi(blk *Block, phi *Statement) {
	x := phi.Declared
	operands := phi.Used
	if len(operands) != len(blk.Preds) {
		internalf("phi %s has %d operands for %d predecessors", f.Vars[x], len(operands), len(blk.Preds))
	}
	interferes := false
	for i := range operands {
		pred := f.Blocks[blk.Preds[i]]
		if pred.LiveOut.Has(x) || slices.Contains(f.Terminator(pred).Used, x) {
			interferes = true
			break
		}
	}
	f.unlink(phi)

	dest := x
	if interferes {
		dest = f.newTemp()
		head := f.newStmt(OpAssign, phi.Span)
		f.insert(blk, head, AfterPhi)
		f.use(head, dest)
		head.Declared = x
		f.Vars[x].Decl = head.ID
	}
	for i, v := range operands {
		pred := f.Blocks[blk.Preds[i]]
		c := f.newStmt(OpAssign, phi.Span)
		f.insert(pred, c, BeforeTerminator)
		f.use(c, v)
		c.Declared = dest
		if i == 0 {
			f.Vars[dest].Decl = c.ID
		}
		pred.LiveOut.Add(dest)
	}
	if len(operands) == 0 {
		f.Vars[dest].Decl = NoStmt
	}
	blk.LiveIn.Add(dest)
	for _, e := range blk.ExcPreds {
		eb := f.Blocks[e]
		eb.LiveIn.Add(dest)
		eb.LiveOut.Add(dest)
	}
}
