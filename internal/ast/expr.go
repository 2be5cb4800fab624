package ast

import "lumen/internal/value"

type (
	Literal struct {
		At
		Value value.Value
	}

	Ident struct {
		At
		Name string
	}

	This   struct{ At }
	Super  struct{ At }
	Global struct{ At }

	Unary struct {
		At
		Op value.UnaryOp
		X  Expr
	}

	// IncDec is ++x, --x, x++ or x--.
	IncDec struct {
		At
		Inc    bool
		Prefix bool
		X      Expr
	}

	Binary struct {
		At
		Op value.BinaryOp
		X  Expr
		Y  Expr
	}

	// Logical is a short-circuit && or ||.
	Logical struct {
		At
		And bool
		X   Expr
		Y   Expr
	}

	Cond struct {
		At
		Cond Expr
		Then Expr
		Else Expr
	}

	// Assign is `Target = Value` or, with Compound set, `Target op= Value`.
	Assign struct {
		At
		Compound bool
		Op       value.BinaryOp
		Target   Expr
		Value    Expr
	}

	Member struct {
		At
		X    Expr
		Name string
	}

	Index struct {
		At
		X   Expr
		Key Expr
	}

	// Call is a function or method call. Omit is f(...); Block is a trailing lazy block.
	Call struct {
		At
		Fn    Expr
		Args  []Arg
		Omit  bool
		Block *Func
	}

	New struct {
		At
		Class Expr
		Args  []Arg
		Omit  bool
	}

	ArrayLit struct {
		At
		Elems []Expr
	}

	DictLit struct {
		At
		Entries []DictEntry
	}

	FuncLit struct {
		At
		Func *Func
	}

	// Delete removes a member or element: `delete a.b`, `delete a[k]`.
	Delete struct {
		At
		X Expr
	}
)

func (*Literal) exprNode()  {}
func (*Ident) exprNode()    {}
func (*This) exprNode()     {}
func (*Super) exprNode()    {}
func (*Global) exprNode()   {}
func (*Unary) exprNode()    {}
func (*IncDec) exprNode()   {}
func (*Binary) exprNode()   {}
func (*Logical) exprNode()  {}
func (*Cond) exprNode()     {}
func (*Assign) exprNode()   {}
func (*Member) exprNode()   {}
func (*Index) exprNode()    {}
func (*Call) exprNode()     {}
func (*New) exprNode()      {}
func (*ArrayLit) exprNode() {}
func (*DictLit) exprNode()  {}
func (*FuncLit) exprNode()  {}
func (*Delete) exprNode()   {}

// IsLValue reports whether e may appear on the left of an assignment.
func IsLValue(e Expr) bool {
	switch x := e.(type) {
	case *Ident, *Member, *Index:
		return true
	case *ArrayLit:
		for _, el := range x.Elems {
			if !IsLValue(el) {
				return false
			}
		}
		return len(x.Elems) > 0
	}
	return false
}
