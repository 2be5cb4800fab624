package ssa

import "slices"

// Pass is one transformation run over a single form.
type Pass struct {
	Name string
	run  func(*Form)
}

// Run applies the pass to f alone.
func (p Pass) Run(f *Form) (err error) {
	defer catch(&err)
	p.run(f)
	return nil
}

// Passes lists the post-construction passes in the order they must run.
var Passes = []Pass{
	{Name: "leap-dead-blocks", run: (*Form).leapDeadBlocks},
	{Name: "convert-shared-access", run: (*Form).convertSharedVariableAccess},
	{Name: "liveness", run: (*Form).analyzeLiveness},
	{Name: "remove-phi", run: (*Form).removePhiStatements},
}

// Optimize runs every pass over root and its descendants.
func Optimize(root *Form) error {
	return root.Walk(func(f *Form) error {
		for _, p := range Passes {
			if err := p.Run(f); err != nil {
				return err
			}
		}
		return nil
	})
}

// leapDeadBlocks drops blocks unreachable from the entry, with the phi
// operands they contributed, and records the breadth-first block order.
func (f *Form) leapDeadBlocks() {
	reach := make([]bool, len(f.Blocks))
	reach[f.Entry] = true
	order := []BlockID{f.Entry}
	for i := 0; i < len(order); i++ {
		for _, s := range f.Blocks[order[i]].Succs {
			if !reach[s] {
				reach[s] = true
				order = append(order, s)
			}
		}
	}
	for _, blk := range f.Blocks {
		if reach[blk.ID] {
			continue
		}
		blk.Alive = false
		for _, sid := range slices.Clone(blk.Succs) {
			succ := f.Blocks[sid]
			for i := slices.Index(succ.Preds, blk.ID); i >= 0; i = slices.Index(succ.Preds, blk.ID) {
				f.deletePred(succ, i)
			}
		}
		for id := blk.First; id != NoStmt; {
			s := f.Stmts[id]
			id = s.Next
			f.unlink(s)
		}
	}
	for _, bid := range order {
		blk := f.Blocks[bid]
		blk.ExcPreds = slices.DeleteFunc(blk.ExcPreds, func(p BlockID) bool { return !reach[p] })
	}
	f.Order = order
}

// convertSharedVariableAccess rewrites namespace reads and writes: pinned
// names move to their shared frame slot, the rest become plain copies.
func (f *Form) convertSharedVariableAccess() {
	for _, bid := range f.Order {
		blk := f.Blocks[bid]
		for id := blk.First; id != NoStmt; {
			s := f.Stmts[id]
			id = s.Next
			switch s.Op {
			case OpPhi:
				if _, ok := f.Pinned[f.Vars[s.Declared].Numbered]; ok {
					f.unlink(s)
				}
			case OpReadVar:
				if _, ok := f.Pinned[s.Name]; !ok {
					s.Op = OpAssign
					continue
				}
				s.Op = OpRead
				for _, u := range s.Used {
					f.Vars[u].removeUse(s.ID)
				}
				s.Used = nil
			case OpWriteVar:
				if _, ok := f.Pinned[s.Name]; !ok {
					s.Op = OpAssign
					continue
				}
				s.Op = OpWrite
				f.Vars[s.Declared].Decl = NoStmt
				s.Declared = NoVar
			}
		}
	}
}
