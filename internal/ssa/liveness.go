package ssa

type liveWork struct {
	block *Block
	atEnd bool
}

// analyzeLiveness fills LiveIn/LiveOut by walking backwards from every use to
// the declaring block. A phi operand is live only at the end of its own
// predecessor. Catch blocks also walk their exception predecessors.
func (f *Form) analyzeLiveness() {
	for _, bid := range f.Order {
		blk := f.Blocks[bid]
		blk.LiveIn = make(VarSet)
		blk.LiveOut = make(VarSet)
	}
	for _, bid := range f.Order {
		blk := f.Blocks[bid]
		for id := blk.First; id != NoStmt; id = f.Stmts[id].Next {
			s := f.Stmts[id]
			for i, u := range s.Used {
				if s.Op == OpPhi {
					f.markLive(f.Blocks[blk.Preds[i]], u, true)
					continue
				}
				if f.declBlock(u) != blk.ID {
					f.markLive(blk, u, false)
				}
			}
		}
	}
}

func (f *Form) declBlock(v VarID) BlockID {
	d := f.Vars[v].Decl
	if d == NoStmt {
		return NoBlock
	}
	return f.Stmts[d].Block
}

func (f *Form) markLive(start *Block, v VarID, atEnd bool) {
	decl := f.declBlock(v)
	work := []liveWork{{start, atEnd}}
	for len(work) > 0 {
		w := work[len(work)-1]
		work = work[:len(work)-1]
		blk := w.block
		if w.atEnd {
			blk.LiveOut.Add(v)
			if blk.ID == decl || blk.LiveIn.Has(v) {
				continue
			}
		} else if blk.LiveIn.Has(v) {
			continue
		}
		blk.LiveIn.Add(v)
		for _, p := range blk.Preds {
			work = append(work, liveWork{f.Blocks[p], true})
		}
		for _, p := range blk.ExcPreds {
			work = append(work, liveWork{f.Blocks[p], true})
		}
	}
}
