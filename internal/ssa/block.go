package ssa

import (
	"fmt"
	"slices"

	"lumen/internal/source"
)

// VarSet is a set of variables.
type VarSet map[VarID]struct{}

func (s VarSet) Has(v VarID) bool {
	_, ok := s[v]
	return ok
}

func (s VarSet) Add(v VarID) { s[v] = struct{}{} }

// Sorted lists the members in ascending order.
func (s VarSet) Sorted() []VarID {
	out := make([]VarID, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Block is a basic block: a straight line of statements ending in a terminator.
type Block struct {
	ID    BlockID
	Name  string
	First StmtID
	Last  StmtID
	Preds []BlockID
	Succs []BlockID
	// ExcPreds lists the try body blocks whose exceptions land in this catch block.
	ExcPreds []BlockID
	Alive    bool

	LiveIn  VarSet
	LiveOut VarSet

	ns *Namespace
}

func (b *Block) String() string { return fmt.Sprintf("%s@%d", b.Name, b.ID) }

// InsertPos selects where a statement is inserted into a block.
type InsertPos uint8

const (
	AtHead InsertPos = iota
	AfterPhi
	BeforeTerminator
	AtTail
)

// Statements lists the block's statements in order.
func (f *Form) Statements(b *Block) []*Statement {
	var out []*Statement
	for id := b.First; id != NoStmt; id = f.Stmts[id].Next {
		out = append(out, f.Stmts[id])
	}
	return out
}

// Terminator returns the last statement when it ends the block.
func (f *Form) Terminator(b *Block) *Statement {
	if b.Last == NoStmt {
		return nil
	}
	if s := f.Stmts[b.Last]; s.Op.IsTerminator() {
		return s
	}
	return nil
}

func (f *Form) insert(b *Block, s *Statement, pos InsertPos) {
	s.Block = b.ID
	var after StmtID = NoStmt
	switch pos {
	case AtHead:
	case AfterPhi:
		for id := b.First; id != NoStmt && f.Stmts[id].Op == OpPhi; id = f.Stmts[id].Next {
			after = id
		}
	case BeforeTerminator:
		after = b.Last
		if after != NoStmt && f.Stmts[after].Op.IsTerminator() {
			after = f.Stmts[after].Prev
		}
	case AtTail:
		after = b.Last
	}
	if after == NoStmt {
		s.Prev = NoStmt
		s.Next = b.First
		if b.First != NoStmt {
			f.Stmts[b.First].Prev = s.ID
		}
		b.First = s.ID
		if b.Last == NoStmt {
			b.Last = s.ID
		}
		return
	}
	prev := f.Stmts[after]
	s.Prev = after
	s.Next = prev.Next
	if prev.Next != NoStmt {
		f.Stmts[prev.Next].Prev = s.ID
	} else {
		b.Last = s.ID
	}
	prev.Next = s.ID
}

// unlink detaches a statement from its block and drops its uses.
func (f *Form) unlink(s *Statement) {
	b := f.Blocks[s.Block]
	if s.Prev != NoStmt {
		f.Stmts[s.Prev].Next = s.Next
	} else {
		b.First = s.Next
	}
	if s.Next != NoStmt {
		f.Stmts[s.Next].Prev = s.Prev
	} else {
		b.Last = s.Prev
	}
	for _, u := range s.Used {
		f.Vars[u].removeUse(s.ID)
	}
	s.Prev, s.Next = NoStmt, NoStmt
	s.Op = OpNop
}

// addPred links pred -> b and extends every phi of b with the value flowing in from pred.
func (f *Form) addPred(b *Block, pred *Block) {
	if pred.ns == nil {
		internalf("block %s gained a successor before its namespace was closed", pred)
	}
	b.Preds = append(b.Preds, pred.ID)
	pred.Succs = append(pred.Succs, b.ID)
	for id := b.First; id != NoStmt && f.Stmts[id].Op == OpPhi; id = f.Stmts[id].Next {
		phi := f.Stmts[id]
		v := f.Vars[phi.Declared]
		f.use(phi, f.phiOperand(pred, v.Name, v.Numbered, phi.Span))
	}
}

// deletePred removes the index-th predecessor and its phi operands.
func (f *Form) deletePred(b *Block, index int) {
	pred := f.Blocks[b.Preds[index]]
	b.Preds = slices.Delete(b.Preds, index, index+1)
	if i := slices.Index(pred.Succs, b.ID); i >= 0 {
		pred.Succs = slices.Delete(pred.Succs, i, i+1)
	}
	for id := b.First; id != NoStmt && f.Stmts[id].Op == OpPhi; id = f.Stmts[id].Next {
		phi := f.Stmts[id]
		f.Vars[phi.Used[index]].removeUse(phi.ID)
		phi.Used = slices.Delete(phi.Used, index, index+1)
	}
}

// phiOperand returns the version of numbered live at the end of pred,
// synthesizing phis in pred and its ancestors when the version is not known yet.
func (f *Form) phiOperand(pred *Block, name, numbered string, span source.Span) VarID {
	sc, ok := pred.ns.find(numbered)
	if !ok {
		panic(f.scopeError(name, span))
	}
	if v := sc.vars[numbered]; v != NoVar {
		return v
	}
	v := f.addPhi(pred, name, numbered, span)
	sc.vars[numbered] = v
	return v
}

type phiWork struct {
	block *Block
	phi   *Statement
}

// addPhi inserts a phi for numbered at the head of b and fills its operands
// from the predecessors, recursing with an explicit work list.
func (f *Form) addPhi(b *Block, name, numbered string, span source.Span) VarID {
	phi, v := f.newPhi(b, name, numbered, span)
	work := []phiWork{{b, phi}}
	for len(work) > 0 {
		w := work[len(work)-1]
		work = work[:len(work)-1]
		for _, pid := range w.block.Preds {
			pred := f.Blocks[pid]
			if pred.ns == nil {
				internalf("phi over open block %s", pred)
			}
			sc, ok := pred.ns.find(numbered)
			if !ok {
				panic(f.scopeError(name, span))
			}
			if sc.vars[numbered] == NoVar {
				np, nv := f.newPhi(pred, name, numbered, span)
				sc.vars[numbered] = nv
				work = append(work, phiWork{pred, np})
			}
			f.use(w.phi, sc.vars[numbered])
		}
	}
	return v
}

func (f *Form) newPhi(b *Block, name, numbered string, span source.Span) (*Statement, VarID) {
	phi := f.newStmt(OpPhi, span)
	f.insert(b, phi, AtHead)
	v := f.declare(phi, name, numbered)
	if b.ns != nil {
		if sc, ok := b.ns.find(numbered); ok && sc.vars[numbered] == NoVar {
			sc.vars[numbered] = v
		}
	}
	return phi, v
}
