// Package bytecode defines the register instruction set, the compiled unit
// produced by the code generator and the immutable program the VM runs.
package bytecode

import (
	"fmt"
	"math"

	"lumen/internal/value"
)

// Opcode is the first word of every instruction.
type Opcode int32

const (
	OpNop Opcode = iota
	OpCopy
	OpConst
	OpThis
	OpSuper
	OpGlobal
	OpParam
	OpCollapse
	OpArray
	OpDict
	OpFunc
	OpBlock
	OpClass
	OpProperty
	OpAccessMap
	OpEndAccessMap
	OpChildWrite
	OpChildRead
	OpMapRead
	OpMapWrite
	OpSharedRead
	OpSharedWrite
	OpCall
	OpNew
	OpNeg
	OpPlus
	OpNot
	OpBitNot
	// OpAdd is followed by one opcode per value.BinaryOp, in the same order.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpDGet
	OpIGet
	OpDSet
	OpISet
	OpDDelete
	OpIDelete
	OpJump
	OpBranch
	OpReturn
	OpThrow
	OpEnterTry
	OpExitTry
	numOpcodes
)

// NoReg marks an absent register operand.
const NoReg int32 = math.MinInt32

// Call argument modes.
const (
	// CallFixed passes the listed registers.
	CallFixed int32 = iota
	// CallOmit passes the caller's own arguments.
	CallOmit
	// CallExpand lists (kind, register) pairs; see Arg*.
	CallExpand
)

// Argument kinds in CallExpand mode.
const (
	ArgPlain int32 = iota
	ArgExpand
	// ArgUnnamed forwards the caller's unnamed variadic tail; its register is NoReg.
	ArgUnnamed
)

// OperandKind classifies an operand word.
type OperandKind uint8

const (
	// Reg is a signed register: negative values address this, global and arguments.
	Reg OperandKind = iota
	// Const indexes the unit's constant pool.
	Const
	// Addr is a jump offset relative to the start of the instruction.
	Addr
	// Num is a plain integer.
	Num
	// Child is a child unit index, relocated to a program unit index by Fixup.
	Child
	// Try is a try identifier, relocated to a program-wide identifier by Fixup.
	Try
)

// Info describes the encoding of one opcode.
type Info struct {
	Name     string
	Operands []OperandKind
	// Count, when >= 0, is the index of the operand holding the length of a
	// trailing register list; Stride registers follow per counted item.
	Count  int
	Stride int
}

var infos [numOpcodes]Info

func def(op Opcode, name string, operands ...OperandKind) {
	infos[op] = Info{Name: name, Operands: operands, Count: -1}
}

func defVar(op Opcode, name string, count, stride int, operands ...OperandKind) {
	infos[op] = Info{Name: name, Operands: operands, Count: count, Stride: stride}
}

func init() {
	def(OpNop, "nop")
	def(OpCopy, "copy", Reg, Reg)
	def(OpConst, "const", Reg, Const)
	def(OpThis, "this", Reg)
	def(OpSuper, "super", Reg)
	def(OpGlobal, "global", Reg)
	def(OpParam, "param", Reg, Num)
	def(OpCollapse, "collapse", Reg, Num)
	defVar(OpArray, "array", 1, 1, Reg, Num)
	defVar(OpDict, "dict", 1, 2, Reg, Num)
	def(OpFunc, "func", Reg, Child)
	def(OpBlock, "block", Reg, Child, Reg)
	def(OpClass, "class", Reg, Reg, Child, Const)
	def(OpProperty, "property", Reg, Reg, Reg)
	def(OpAccessMap, "accmap", Reg)
	def(OpEndAccessMap, "endaccmap", Reg)
	def(OpChildWrite, "chwrite", Reg, Const, Reg)
	def(OpChildRead, "chread", Reg, Reg, Const)
	def(OpMapRead, "mapread", Reg, Const)
	def(OpMapWrite, "mapwrite", Const, Reg)
	def(OpSharedRead, "sread", Reg, Num, Num)
	def(OpSharedWrite, "swrite", Num, Num, Reg)
	// call dst, fn, this, mode, n, args...
	defVar(OpCall, "call", 4, 1, Reg, Reg, Reg, Num, Num)
	// new dst, class, mode, n, args...
	defVar(OpNew, "new", 3, 1, Reg, Reg, Num, Num)
	def(OpNeg, "neg", Reg, Reg)
	def(OpPlus, "plus", Reg, Reg)
	def(OpNot, "not", Reg, Reg)
	def(OpBitNot, "bitnot", Reg, Reg)
	for op := OpAdd; op <= OpGe; op++ {
		def(op, binaryNames[op-OpAdd], Reg, Reg, Reg)
	}
	def(OpDGet, "dget", Reg, Reg, Const)
	def(OpIGet, "iget", Reg, Reg, Reg)
	def(OpDSet, "dset", Reg, Const, Reg)
	def(OpISet, "iset", Reg, Reg, Reg)
	def(OpDDelete, "ddel", Reg, Reg, Const)
	def(OpIDelete, "idel", Reg, Reg, Reg)
	def(OpJump, "jump", Addr)
	def(OpBranch, "branch", Reg, Addr, Addr)
	def(OpReturn, "ret", Reg)
	def(OpThrow, "throw", Reg)
	def(OpEnterTry, "try", Addr, Reg, Try)
	def(OpExitTry, "etry", Try)
}

var binaryNames = [...]string{
	"add", "sub", "mul", "div", "idiv", "mod", "band", "bor", "bxor", "shl", "shr", "ushr",
	"eq", "ne", "seq", "sne", "lt", "gt", "le", "ge",
}

// BinaryOpcode maps a value operator to its instruction.
func BinaryOpcode(op value.BinaryOp) Opcode { return OpAdd + Opcode(op) }

// BinaryOp is the inverse of BinaryOpcode.
func (op Opcode) BinaryOp() (value.BinaryOp, bool) {
	if op < OpAdd || op > OpGe {
		return 0, false
	}
	return value.BinaryOp(op - OpAdd), true
}

// UnaryOpcode maps a value unary operator to its instruction.
func UnaryOpcode(op value.UnaryOp) Opcode {
	switch op {
	case value.UnNeg:
		return OpNeg
	case value.UnPlus:
		return OpPlus
	case value.UnNot:
		return OpNot
	}
	return OpBitNot
}

// LookupInfo returns the encoding of op.
func LookupInfo(op Opcode) (Info, bool) {
	if op < 0 || op >= numOpcodes {
		return Info{}, false
	}
	return infos[op], true
}

func (op Opcode) String() string {
	if info, ok := LookupInfo(op); ok {
		return info.Name
	}
	return fmt.Sprintf("Opcode(%d)", int32(op))
}

// Width returns the number of words of the instruction starting at code[pc].
func Width(code []int32, pc int) (int, error) {
	info, ok := LookupInfo(Opcode(code[pc]))
	if !ok {
		return 0, fmt.Errorf("bytecode: bad opcode %d at %d", code[pc], pc)
	}
	n := 1 + len(info.Operands)
	if info.Count >= 0 {
		at := pc + 1 + info.Count
		if at >= len(code) || code[at] < 0 {
			return 0, fmt.Errorf("bytecode: bad operand count at %d", pc)
		}
		stride := info.Stride
		if (Opcode(code[pc]) == OpCall || Opcode(code[pc]) == OpNew) && code[at-1] == CallExpand {
			stride = 2
		}
		n += int(code[at]) * stride
	}
	if pc+n > len(code) {
		return 0, fmt.Errorf("bytecode: truncated %s at %d", info.Name, pc)
	}
	return n, nil
}
