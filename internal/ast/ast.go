// Package ast defines the syntax tree handed from the parser to the SSA builder.
//
// Nodes are plain structs behind the Expr and Stmt interfaces. The tree is
// acyclic and read-only once parsed; the compiler dispatches on node types
// with type switches.
package ast

import (
	"lumen/internal/source"
)

// Node is implemented by every tree node.
type Node interface {
	Pos() source.Span
}

// Expr is a node producing a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node executed for effect.
type Stmt interface {
	Node
	stmtNode()
}

// At carries the source span of a node.
type At struct {
	Span source.Span
}

func (a At) Pos() source.Span { return a.Span }

// Script is the root of one source file.
type Script struct {
	At
	Name string
	Body []Stmt
}

// FuncKind tells the compiler which kind of unit a Func becomes.
type FuncKind uint8

const (
	FuncPlain FuncKind = iota
	FuncGetter
	FuncSetter
	FuncBlock // trailing lazy block
)

// Func is a function literal, declaration body, property accessor or lazy block.
type Func struct {
	At
	Kind   FuncKind
	Name   string
	Params []string
	// Collapse names a trailing parameter that receives the remaining arguments as an array.
	Collapse string
	// UnnamedTail marks a trailing bare `*`; the tail can be forwarded with f(*).
	UnnamedTail bool
	Body        []Stmt
}

// Arg is one call argument. A nil Value with Expand set is the unnamed expand `*`.
type Arg struct {
	Value  Expr
	Expand bool
}

// DictEntry is one `key => value` pair of a dictionary literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// VarSpec is one declarator of a var statement.
type VarSpec struct {
	At
	Name string
	Init Expr
}
