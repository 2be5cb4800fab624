package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrCoercion is wrapped by every failed implicit conversion.
	ErrCoercion = errors.New("bad coercion")
	// ErrDivisionByZero is returned by integer division and modulo.
	ErrDivisionByZero = errors.New("division by zero")
)

// Truthy reports how v behaves as a branch condition.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindVoid, KindNull:
		return false
	case KindBool, KindInt:
		return v.i != 0
	case KindReal:
		return v.f != 0 && !math.IsNaN(v.f)
	case KindString, KindOctet:
		return v.s != ""
	default:
		return true
	}
}

// ToNumber converts v to an int or real value.
func (v Value) ToNumber() (Value, error) {
	switch v.kind {
	case KindVoid, KindNull:
		return Int(0), nil
	case KindBool:
		return Int(v.i), nil
	case KindInt, KindReal:
		return v, nil
	case KindString:
		if n, ok := parseNumber(v.s); ok {
			return n, nil
		}
		return Value{}, fmt.Errorf("%w: cannot convert string %q to number", ErrCoercion, v.s)
	default:
		return Value{}, fmt.Errorf("%w: cannot convert %s to number", ErrCoercion, v.TypeName())
	}
}

// ToInt converts v to an integer, truncating reals.
func (v Value) ToInt() (int64, error) {
	n, err := v.ToNumber()
	if err != nil {
		return 0, err
	}
	if n.kind == KindReal {
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return 0, fmt.Errorf("%w: %s has no integer value", ErrCoercion, formatReal(n.f))
		}
		return int64(n.f), nil
	}
	return n.i, nil
}

// ToReal converts v to a float.
func (v Value) ToReal() (float64, error) {
	n, err := v.ToNumber()
	if err != nil {
		return 0, err
	}
	if n.kind == KindReal {
		return n.f, nil
	}
	return float64(n.i), nil
}

func parseNumber(s string) (Value, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return Int(0), true
	}
	if i, err := strconv.ParseInt(t, 0, 64); err == nil {
		return Int(i), true
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return Real(f), true
	}
	return Value{}, false
}
