package ssa

type (
	// VarID indexes Form.Vars.
	VarID int32
	// StmtID indexes Form.Stmts.
	StmtID int32
	// BlockID indexes Form.Blocks.
	BlockID int32
)

const (
	NoVar   VarID   = -1
	NoStmt  StmtID  = -1
	NoBlock BlockID = -1
)
