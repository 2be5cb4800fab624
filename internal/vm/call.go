package vm

import (
	"lumen/internal/bytecode"
	"lumen/internal/value"
)

// callArgs builds the argument list of the call or new instruction at f.at.
// The mode word sits at operand index first-2 and the item count at first-1.
func (t *Thread) callArgs(f *Frame, mode, n int32, first int) []value.Value {
	code := f.unit.Code
	item := func(i int) int32 { return code[f.at+1+first+i] }
	switch mode {
	case bytecode.CallFixed:
		args := make([]value.Value, n)
		for i := range int(n) {
			args[i] = t.reg(f, item(i))
		}
		return args
	case bytecode.CallOmit:
		args := make([]value.Value, 0, len(f.args)+int(n))
		args = append(args, f.args...)
		for i := range int(n) {
			args = append(args, t.reg(f, item(i)))
		}
		return args
	case bytecode.CallExpand:
		var args []value.Value
		for i := range int(n) {
			kind, r := item(2*i), item(2*i+1)
			switch kind {
			case bytecode.ArgPlain:
				args = append(args, t.reg(f, r))
			case bytecode.ArgExpand:
				args = append(args, t.spread(t.reg(f, r))...)
			case bytecode.ArgUnnamed:
				if np := f.unit.NumParams; np < len(f.args) {
					args = append(args, f.args[np:]...)
				}
			default:
				panic(t.eb.badOperand("argument kind", kind))
			}
		}
		return args
	}
	panic(t.eb.badOperand("call mode", mode))
}

// spread lists the elements of an expanded argument. Non-array values pass
// through as a single argument and void expands to nothing.
func (t *Thread) spread(v value.Value) []value.Value {
	if v.IsVoid() {
		return nil
	}
	if a, ok := v.AsObject().(*Array); ok {
		return a.Elems
	}
	return []value.Value{v}
}

// call invokes fn. A void this binds closures to the this they captured.
func (t *Thread) call(fn, this value.Value, args []value.Value) (value.Value, error) {
	if p, ok := this.AsObject().(*SuperProxy); ok {
		this = p.This
	}
	if fn.Kind() != value.KindObject {
		return value.Void(), t.eb.typeError("%s is not callable", fn.TypeName())
	}
	switch o := fn.AsObject().(type) {
	case *Closure:
		if this.IsVoid() || o.Unit.Kind == bytecode.KindBlock {
			this = o.This
		}
		return t.invoke(o, this, args)
	case *NativeFunction:
		return o.Fn(t, this, args)
	case *Class:
		return value.Void(), t.eb.typeError("class %s must be instantiated with new", o.Name)
	}
	return value.Void(), t.eb.typeError("%s is not callable", fn.TypeName())
}

// construct creates an instance of cls and runs its initialize member.
func (t *Thread) construct(cls value.Value, args []value.Value) (value.Value, error) {
	c, ok := cls.AsObject().(*Class)
	if !ok || cls.Kind() != value.KindObject {
		return value.Void(), t.eb.typeError("cannot instantiate %s", cls.TypeName())
	}
	inst := value.Obj(&Instance{Class: c, Fields: NewDict()})
	if init, ok := c.lookup("initialize"); ok {
		if _, err := t.call(init, inst, args); err != nil {
			return value.Void(), err
		}
	}
	return inst, nil
}
