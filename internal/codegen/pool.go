package codegen

import "lumen/internal/value"

// poolWindow bounds how far back the constant pool looks for a duplicate.
const poolWindow = 20

type constPool struct {
	values []value.Value
}

// index returns the slot of v, reusing one of the most recent entries when identical.
func (p *constPool) index(v value.Value) int {
	lo := max(len(p.values)-poolWindow, 0)
	for i := len(p.values) - 1; i >= lo; i-- {
		if value.Identical(p.values[i], v) {
			return i
		}
	}
	p.values = append(p.values, v)
	return len(p.values) - 1
}
