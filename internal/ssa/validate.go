package ssa

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks the structural invariants of f and its descendants.
//
// Before phi elimination every variable has exactly one linked declaring
// statement. In every state each use is reachable from a declaration of the
// variable, phis lead their blocks, and every live block ends in a terminator.
func Validate(root *Form) error {
	var errs []error
	_ = root.Walk(func(f *Form) error {
		errs = append(errs, f.validate()...)
		return nil
	})
	return errors.Join(errs...)
}

func (f *Form) validate() []error {
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", f.Name, fmt.Sprintf(format, args...)))
	}
	order := f.Order
	if order == nil {
		for _, b := range f.Blocks {
			order = append(order, b.ID)
		}
	}
	defs := make(map[VarID][]StmtID)
	for _, bid := range order {
		blk := f.Blocks[bid]
		seenOther := false
		for id := blk.First; id != NoStmt; id = f.Stmts[id].Next {
			s := f.Stmts[id]
			if s.Block != blk.ID {
				report("statement %d linked into %s but records block %d", s.ID, blk, s.Block)
			}
			if s.Op == OpPhi {
				if seenOther {
					report("phi %d in %s follows a non-phi statement", s.ID, blk)
				}
			} else {
				seenOther = true
			}
			if s.Op.IsTerminator() && s.Next != NoStmt {
				report("terminator %d in %s is not last", s.ID, blk)
			}
			if s.Declared != NoVar {
				defs[s.Declared] = append(defs[s.Declared], s.ID)
			}
		}
		if f.Order != nil && f.Terminator(blk) == nil {
			report("block %s has no terminator", blk)
		}
	}
	for v, ds := range defs {
		if f.Vars[v].Decl == NoStmt {
			report("variable %s declared by %v but records no declaration", f.Vars[v], ds)
		}
	}
	if f.Order == nil || hasPhiOrPseudo(f) {
		for v, ds := range defs {
			if len(ds) != 1 {
				report("variable %s has %d declaring statements", f.Vars[v], len(ds))
			} else if f.Vars[v].Decl != ds[0] {
				report("variable %s records declaration %d, declared by %d", f.Vars[v], f.Vars[v].Decl, ds[0])
			}
		}
	}
	for _, bid := range order {
		blk := f.Blocks[bid]
		for id := blk.First; id != NoStmt; id = f.Stmts[id].Next {
			s := f.Stmts[id]
			for i, u := range s.Used {
				if len(defs[u]) == 0 {
					report("statement %d (%s) uses %s which has no declaration", s.ID, s.Op, f.Vars[u])
					continue
				}
				at := blk.ID
				if s.Op == OpPhi {
					at = blk.Preds[i]
				}
				if !f.reachesUse(defs[u], at, s) {
					report("use of %s in %s is not reachable from its declaration", f.Vars[u], f.Blocks[at])
				}
			}
		}
	}
	return errs
}

func hasPhiOrPseudo(f *Form) bool {
	for _, bid := range f.Order {
		blk := f.Blocks[bid]
		for id := blk.First; id != NoStmt; id = f.Stmts[id].Next {
			switch f.Stmts[id].Op {
			case OpPhi, OpReadVar, OpWriteVar:
				return true
			}
		}
	}
	return false
}

// reachesUse reports whether one of defs precedes use along some path.
func (f *Form) reachesUse(defs []StmtID, at BlockID, use *Statement) bool {
	for _, d := range defs {
		ds := f.Stmts[d]
		if ds.Block == at {
			if use.Block != at || use.Op == OpPhi {
				return true
			}
			for id := ds.Next; id != NoStmt; id = f.Stmts[id].Next {
				if id == use.ID {
					return true
				}
			}
		}
		if f.pathExists(ds.Block, at) {
			return true
		}
	}
	return false
}

// pathExists reports whether to can be entered from the end of from.
func (f *Form) pathExists(from, to BlockID) bool {
	seen := map[BlockID]bool{}
	work := []BlockID{from}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		next := f.Blocks[b].Succs
		for _, s := range next {
			if s == to {
				return true
			}
			if !seen[s] {
				seen[s] = true
				work = append(work, s)
			}
		}
		for _, c := range f.Blocks {
			if c.Alive && !seen[c.ID] && slices.Contains(c.ExcPreds, b) {
				if c.ID == to {
					return true
				}
				seen[c.ID] = true
				work = append(work, c.ID)
			}
		}
	}
	return false
}
