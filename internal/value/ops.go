package value

import (
	"fmt"
	"math"
	"strings"
)

// BinaryOp enumerates the binary operators the compiler folds and the VM executes.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinIDiv
	BinMod
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinUShr
	BinEq
	BinNe
	BinStrictEq
	BinStrictNe
	BinLt
	BinGt
	BinLe
	BinGe
)

var binaryNames = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinIDiv: "\\", BinMod: "%",
	BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^", BinShl: "<<", BinShr: ">>", BinUShr: ">>>",
	BinEq: "==", BinNe: "!=", BinStrictEq: "===", BinStrictNe: "!==",
	BinLt: "<", BinGt: ">", BinLe: "<=", BinGe: ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", uint8(op))
}

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	UnNeg UnaryOp = iota
	UnPlus
	UnNot
	UnBitNot
)

func (op UnaryOp) String() string {
	switch op {
	case UnNeg:
		return "-"
	case UnPlus:
		return "+"
	case UnNot:
		return "!"
	case UnBitNot:
		return "~"
	}
	return fmt.Sprintf("UnaryOp(%d)", uint8(op))
}

// Binary applies op to a and b.
func Binary(op BinaryOp, a, b Value) (Value, error) {
	switch op {
	case BinAdd:
		return add(a, b)
	case BinSub, BinMul:
		return arith(op, a, b)
	case BinDiv:
		x, err := a.ToReal()
		if err != nil {
			return Value{}, err
		}
		y, err := b.ToReal()
		if err != nil {
			return Value{}, err
		}
		return Real(x / y), nil
	case BinIDiv, BinMod, BinBitAnd, BinBitOr, BinBitXor, BinShl, BinShr, BinUShr:
		return integer(op, a, b)
	case BinEq:
		return Bool(Equal(a, b)), nil
	case BinNe:
		return Bool(!Equal(a, b)), nil
	case BinStrictEq:
		return Bool(StrictEqual(a, b)), nil
	case BinStrictNe:
		return Bool(!StrictEqual(a, b)), nil
	case BinLt, BinGt, BinLe, BinGe:
		return compare(op, a, b)
	}
	return Value{}, fmt.Errorf("unknown binary operator %d", op)
}

// Unary applies op to a.
func Unary(op UnaryOp, a Value) (Value, error) {
	switch op {
	case UnNot:
		return Bool(!a.Truthy()), nil
	case UnBitNot:
		i, err := a.ToInt()
		if err != nil {
			return Value{}, err
		}
		return Int(^i), nil
	case UnPlus:
		return a.ToNumber()
	case UnNeg:
		n, err := a.ToNumber()
		if err != nil {
			return Value{}, err
		}
		if n.kind == KindReal {
			return Real(-n.f), nil
		}
		return Int(-n.i), nil
	}
	return Value{}, fmt.Errorf("unknown unary operator %d", op)
}

func add(a, b Value) (Value, error) {
	switch {
	case a.kind == KindString || b.kind == KindString:
		return Str(a.String() + b.String()), nil
	case a.kind == KindOctet && b.kind == KindOctet:
		return OctetString(a.s + b.s), nil
	}
	return arith(BinAdd, a, b)
}

func arith(op BinaryOp, a, b Value) (Value, error) {
	x, err := a.ToNumber()
	if err != nil {
		return Value{}, err
	}
	y, err := b.ToNumber()
	if err != nil {
		return Value{}, err
	}
	if x.kind == KindInt && y.kind == KindInt {
		switch op {
		case BinAdd:
			return Int(x.i + y.i), nil
		case BinSub:
			return Int(x.i - y.i), nil
		case BinMul:
			return Int(x.i * y.i), nil
		}
	}
	xf, yf := realOf(x), realOf(y)
	switch op {
	case BinAdd:
		return Real(xf + yf), nil
	case BinSub:
		return Real(xf - yf), nil
	default:
		return Real(xf * yf), nil
	}
}

func integer(op BinaryOp, a, b Value) (Value, error) {
	x, err := a.ToInt()
	if err != nil {
		return Value{}, err
	}
	y, err := b.ToInt()
	if err != nil {
		return Value{}, err
	}
	switch op {
	case BinIDiv:
		if y == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Int(x / y), nil
	case BinMod:
		if y == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Int(x % y), nil
	case BinBitAnd:
		return Int(x & y), nil
	case BinBitOr:
		return Int(x | y), nil
	case BinBitXor:
		return Int(x ^ y), nil
	case BinShl:
		return Int(x << uint64(y&63)), nil
	case BinShr:
		return Int(x >> uint64(y&63)), nil
	default:
		return Int(int64(uint64(x) >> uint64(y&63))), nil
	}
}

func compare(op BinaryOp, a, b Value) (Value, error) {
	var c int
	if a.kind == KindString && b.kind == KindString {
		c = strings.Compare(a.s, b.s)
	} else {
		x, err := a.ToNumber()
		if err != nil {
			return Value{}, err
		}
		y, err := b.ToNumber()
		if err != nil {
			return Value{}, err
		}
		if x.kind == KindInt && y.kind == KindInt {
			c = cmpInt(x.i, y.i)
		} else {
			xf, yf := realOf(x), realOf(y)
			if math.IsNaN(xf) || math.IsNaN(yf) {
				return Bool(false), nil
			}
			c = cmpReal(xf, yf)
		}
	}
	switch op {
	case BinLt:
		return Bool(c < 0), nil
	case BinGt:
		return Bool(c > 0), nil
	case BinLe:
		return Bool(c <= 0), nil
	default:
		return Bool(c >= 0), nil
	}
}

// Equal is the loose equality used by == and !=.
func Equal(a, b Value) bool {
	if a.kind == b.kind {
		return StrictEqual(a, b)
	}
	switch {
	case isNullish(a) || isNullish(b):
		return isNullish(a) && isNullish(b)
	case a.kind == KindObject || b.kind == KindObject:
		return false
	case a.kind == KindOctet || b.kind == KindOctet:
		return false
	}
	x, err := a.ToNumber()
	if err != nil {
		return false
	}
	y, err := b.ToNumber()
	if err != nil {
		return false
	}
	if x.kind == KindInt && y.kind == KindInt {
		return x.i == y.i
	}
	return realOf(x) == realOf(y)
}

// StrictEqual requires identical kinds and payloads; objects compare by identity.
func StrictEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindVoid, KindNull:
		return true
	case KindBool, KindInt:
		return a.i == b.i
	case KindReal:
		return a.f == b.f
	case KindString, KindOctet:
		return a.s == b.s
	default:
		return a.o == b.o
	}
}

// Identical is StrictEqual that also tells NaN payloads and signed zeros apart.
// The constant pool uses it for deduplication.
func Identical(a, b Value) bool {
	if a.kind == KindReal && b.kind == KindReal {
		return math.Float64bits(a.f) == math.Float64bits(b.f)
	}
	return StrictEqual(a, b)
}

func isNullish(v Value) bool { return v.kind == KindVoid || v.kind == KindNull }

func realOf(v Value) float64 {
	if v.kind == KindReal {
		return v.f
	}
	return float64(v.i)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpReal(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
