// Package value implements the dynamic value model shared by the compiler's
// constant folder and the virtual machine.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the payload carried by a Value.
type Kind uint8

const (
	// KindVoid is the value of missing arguments and uninitialized variables.
	KindVoid Kind = iota
	KindNull
	KindBool
	KindInt
	KindReal
	KindString
	// KindOctet is an immutable binary blob.
	KindOctet
	// KindObject references a heap object owned by the VM.
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindOctet:
		return "octet"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Object is implemented by every heap value the VM hands out.
type Object interface {
	TypeName() string
}

// Value is a tagged union. The zero Value is void.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	o    Object
}

func Void() Value { return Value{} }
func Null() Value { return Value{kind: KindNull} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Real(f float64) Value { return Value{kind: KindReal, f: f} }
func Str(s string) Value { return Value{kind: KindString, s: s} }
func Octet(b []byte) Value { return Value{kind: KindOctet, s: string(b)} }
func OctetString(s string) Value { return Value{kind: KindOctet, s: s} }

func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

// Obj wraps o; a nil object becomes null.
func Obj(o Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, o: o}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsVoid() bool { return v.kind == KindVoid }
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindReal }
func (v Value) AsInt() int64 { return v.i }
func (v Value) AsReal() float64 { return v.f }
func (v Value) AsBool() bool { return v.i != 0 }
func (v Value) AsString() string {
	return v.s
}

// AsOctet returns a copy of the blob bytes.
func (v Value) AsOctet() []byte { return []byte(v.s) }

func (v Value) AsObject() Object { return v.o }

// TypeName is what the typeof helper reports.
func (v Value) TypeName() string {
	if v.kind == KindObject {
		return v.o.TypeName()
	}
	return v.kind.String()
}

// String renders v the way string coercion does.
func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return ""
	case KindNull:
		return "null"
	case KindBool:
		if v.i != 0 {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return formatReal(v.f)
	case KindString:
		return v.s
	case KindOctet:
		return formatOctet(v.s)
	case KindObject:
		if s, ok := v.o.(fmt.Stringer); ok {
			return s.String()
		}
		return "[object " + v.o.TypeName() + "]"
	}
	return ""
}

// Repr is a debugging representation that keeps strings quoted and void visible.
func (v Value) Repr() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindString:
		return strconv.Quote(v.s)
	case KindReal:
		s := formatReal(v.f)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	default:
		return v.String()
	}
}

func formatReal(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatOctet(s string) string {
	var sb strings.Builder
	sb.WriteString("<%")
	for i := 0; i < len(s); i++ {
		fmt.Fprintf(&sb, " %02x", s[i])
	}
	sb.WriteString(" %>")
	return sb.String()
}
