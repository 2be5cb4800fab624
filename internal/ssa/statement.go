package ssa

import (
	"lumen/internal/source"
	"lumen/internal/value"
)

// ArgKind describes one call argument.
type ArgKind uint8

const (
	ArgPlain ArgKind = iota
	// ArgExpand spreads an array-like argument.
	ArgExpand
	// ArgUnnamedExpand forwards the caller's unnamed variadic tail; it has no operand.
	ArgUnnamedExpand
)

// CallInfo carries the argument shape of OpCall and OpNew.
type CallInfo struct {
	// HasThis means Used[1] is the receiver; arguments follow it.
	HasThis bool
	// Omit forwards the caller's own arguments (`f(...)`).
	Omit bool
	Args []ArgKind
}

// ParentAccess tells how an OpParentRead/OpParentWrite reaches the outer variable.
type ParentAccess uint8

const (
	// ViaAccessMap goes through the lazy block's access map, keyed by surface name.
	ViaAccessMap ParentAccess = iota
	// ViaSharedFrame goes through the pinned slot of the owning ancestor.
	ViaSharedFrame
)

// PropFlags tells which accessors an OpDefineProperty received.
type PropFlags uint8

const (
	PropGetter PropFlags = 1 << iota
	PropSetter
)

// Statement is one SSA operation, linked into its block.
type Statement struct {
	ID    StmtID
	Op    Op
	Block BlockID
	Prev  StmtID
	Next  StmtID
	Span  source.Span

	Declared VarID
	Used     []VarID

	// Name is a member name, a variable name, or a numbered name depending on Op.
	Name  string
	Const value.Value
	// Index is a parameter index or a try identifier.
	Index int
	Bin   value.BinaryOp
	Un    value.UnaryOp

	Target BlockID // OpJump target, OpEnterTry body
	True   BlockID
	False  BlockID
	Catch  BlockID // OpEnterTry handler

	Child  *Form
	Call   *CallInfo
	Access ParentAccess
	Owner  *Form // ancestor owning a ViaSharedFrame variable
	Props  PropFlags
}

// Targets returns the successor blocks named by a terminator.
func (s *Statement) Targets() []BlockID {
	switch s.Op {
	case OpJump:
		return []BlockID{s.Target}
	case OpBranch:
		return []BlockID{s.True, s.False}
	case OpEnterTry:
		return []BlockID{s.Target, s.Catch}
	}
	return nil
}
