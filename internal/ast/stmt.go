package ast

type (
	ExprStmt struct {
		At
		X Expr
	}

	VarDecl struct {
		At
		Vars []VarSpec
	}

	Block struct {
		At
		Body []Stmt
	}

	If struct {
		At
		Cond Expr
		Then Stmt
		Else Stmt // may be nil
	}

	While struct {
		At
		Cond Expr
		Body Stmt
	}

	DoWhile struct {
		At
		Body Stmt
		Cond Expr
	}

	// For is for(Init; Cond; Step) Body; every header part may be nil.
	For struct {
		At
		Init Stmt
		Cond Expr
		Step Expr
		Body Stmt
	}

	// Switch keeps case labels inline in Body, so a case outside of a
	// switch body is representable and rejected by the compiler.
	Switch struct {
		At
		Tag  Expr
		Body []Stmt
	}

	// Case is `case Expr:`; a nil Expr is `default:`.
	Case struct {
		At
		Expr Expr
	}

	Break    struct{ At }
	Continue struct{ At }

	Return struct {
		At
		Value Expr // may be nil
	}

	Throw struct {
		At
		Value Expr
	}

	Try struct {
		At
		Body      *Block
		CatchName string // may be empty
		Catch     *Block
	}

	FuncDecl struct {
		At
		Func *Func
	}

	// ClassDecl holds member statements (VarDecl, FuncDecl, PropertyDecl)
	// that run once with `this` bound to the new class object.
	ClassDecl struct {
		At
		Name  string
		Super Expr // may be nil
		Body  []Stmt
	}

	PropertyDecl struct {
		At
		Name   string
		Getter *Func // may be nil
		Setter *Func // may be nil
	}

	Label struct {
		At
		Name string
	}

	Goto struct {
		At
		Label string
	}

	Empty struct{ At }
)

func (*ExprStmt) stmtNode()     {}
func (*VarDecl) stmtNode()      {}
func (*Block) stmtNode()        {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*DoWhile) stmtNode()      {}
func (*For) stmtNode()          {}
func (*Switch) stmtNode()       {}
func (*Case) stmtNode()         {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*Return) stmtNode()       {}
func (*Throw) stmtNode()        {}
func (*Try) stmtNode()          {}
func (*FuncDecl) stmtNode()     {}
func (*ClassDecl) stmtNode()    {}
func (*PropertyDecl) stmtNode() {}
func (*Label) stmtNode()        {}
func (*Goto) stmtNode()         {}
func (*Empty) stmtNode()        {}
