package ssa

import "fmt"

// Op is the operation of a Statement.
type Op uint8

const (
	// OpNop does nothing; dead statements are turned into it before removal.
	OpNop Op = iota
	// OpAssign copies Used[0] into Declared.
	OpAssign
	// OpAssignConst loads Const into Declared.
	OpAssignConst
	OpAssignThis
	OpAssignSuper
	OpAssignGlobal
	// OpAssignParam loads the Index-th argument.
	OpAssignParam
	// OpAssignCollapse packs the arguments from Index on into an array.
	OpAssignCollapse
	// OpNewArray builds an array of Used.
	OpNewArray
	// OpNewDict builds a dictionary from Used as key, value pairs.
	OpNewDict
	// OpDefineFunction makes a closure of Child.
	OpDefineFunction
	// OpDefineLazyBlock makes a closure of Child bound to the access map in Used[0].
	OpDefineLazyBlock
	// OpDefineAccessMap allocates the copy-in/copy-out map of a lazy block.
	OpDefineAccessMap
	// OpEndAccessMap keeps the access map alive until every child read is done.
	OpEndAccessMap
	// OpChildWrite stores Used[1] under Name in the access map Used[0].
	OpChildWrite
	// OpChildRead loads Name from the access map Used[0].
	OpChildRead
	// OpParentRead loads an outer variable: from the block's access map, or from a shared frame.
	OpParentRead
	// OpParentWrite stores Used[0] into an outer variable.
	OpParentWrite
	// OpRead loads a pinned variable of this form from its shared frame.
	OpRead
	// OpWrite stores Used[0] into a pinned variable of this form.
	OpWrite
	// OpReadVar reads a namespace variable; rewritten to OpAssign or OpRead.
	OpReadVar
	// OpWriteVar defines a new version of a namespace variable; rewritten to OpAssign or OpWrite.
	OpWriteVar
	// OpDefineClass creates a class (superclass Used[0], optional) and runs Child on it.
	OpDefineClass
	// OpDefineProperty builds a property from getter Used[0] and setter Used[1] (both optional, see PropFlags).
	OpDefineProperty
	OpCall
	OpNew
	OpUnary
	OpBinary
	OpDGet
	OpIGet
	OpDSet
	OpISet
	OpDDelete
	OpIDelete
	OpPhi
	OpJump
	OpBranch
	OpReturn
	OpThrow
	// OpEnterTry declares the exception variable, jumps to Target and routes exceptions to Catch.
	OpEnterTry
	OpExitTry
)

var opNames = [...]string{
	OpNop: "nop", OpAssign: "assign", OpAssignConst: "const", OpAssignThis: "this",
	OpAssignSuper: "super", OpAssignGlobal: "global", OpAssignParam: "param",
	OpAssignCollapse: "collapse", OpNewArray: "array", OpNewDict: "dict",
	OpDefineFunction: "function", OpDefineLazyBlock: "lazyblock", OpDefineAccessMap: "accessmap",
	OpEndAccessMap: "endaccessmap", OpChildWrite: "childwrite", OpChildRead: "childread",
	OpParentRead: "parentread", OpParentWrite: "parentwrite", OpRead: "read", OpWrite: "write",
	OpReadVar: "readvar", OpWriteVar: "writevar", OpDefineClass: "class", OpDefineProperty: "property",
	OpCall: "call", OpNew: "new", OpUnary: "unary", OpBinary: "binary",
	OpDGet: "dget", OpIGet: "iget", OpDSet: "dset", OpISet: "iset", OpDDelete: "ddelete", OpIDelete: "idelete",
	OpPhi: "phi", OpJump: "jump", OpBranch: "branch", OpReturn: "return", OpThrow: "throw",
	OpEnterTry: "entertry", OpExitTry: "exittry",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// IsTerminator reports whether op ends a block.
func (op Op) IsTerminator() bool {
	switch op {
	case OpJump, OpBranch, OpReturn, OpThrow, OpEnterTry:
		return true
	}
	return false
}
