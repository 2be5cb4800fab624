package vm

import (
	"errors"

	"lumen/internal/bytecode"
	"lumen/internal/value"
)

const noReg = bytecode.NoReg

// invoke runs closure c as a new activation on t.
func (t *Thread) invoke(c *Closure, this value.Value, args []value.Value) (value.Value, error) {
	u := c.Unit
	if t.tracer.Depth() >= t.vm.opts.MaxDepth {
		return value.Void(), t.eb.raise("RangeError", "call stack exceeds %d frames", t.vm.opts.MaxDepth)
	}
	if strictArity(u) && len(args) > u.NumParams {
		return value.Void(), t.eb.typeError("%s takes %d arguments, got %d", u.Name, u.NumParams, len(args))
	}
	f := newFrame(c, this, args)
	t.tracer.push(f)
	defer t.tracer.pop()
	return t.run(f)
}

// strictArity reports whether extra arguments are an error for u.
// Lazy blocks and variadic functions accept any count.
func strictArity(u *bytecode.Unit) bool {
	switch u.Kind {
	case bytecode.KindFunction, bytecode.KindGetter, bytecode.KindSetter:
		return !u.Collapse && !u.UnnamedTail
	}
	return false
}

// run executes f, routing script exceptions to the innermost open try.
func (t *Thread) run(f *Frame) (value.Value, error) {
	for {
		ret, err := t.exec(f)
		if err == nil {
			return ret, nil
		}
		var se *ScriptError
		if !errors.As(err, &se) || len(f.tries) == 0 {
			return value.Void(), err
		}
		top := f.tries[len(f.tries)-1]
		f.tries = f.tries[:len(f.tries)-1]
		t.vm.opts.Trace.TraceThrow(t.tracer.Depth(), f, se.Value, top.catch)
		t.set(f, top.reg, se.Value)
		f.pc = top.catch
	}
}

// exec dispatches instructions until the unit returns or an exception escapes.
func (t *Thread) exec(f *Frame) (value.Value, error) {
	code := f.unit.Code
	w := func(i int) int32 { return code[f.at+1+i] }
	for {
		if f.pc < 0 || f.pc >= len(code) {
			panic(t.eb.fault(FaultRanOff, "pc %d outside %s", f.pc, f.unit.Name))
		}
		f.at = f.pc
		if t.vm.opts.Trace != nil {
			t.vm.opts.Trace.TraceInstr(t.tracer.Depth(), t.prog, f)
		}
		op := bytecode.Opcode(code[f.at])
		width, err := bytecode.Width(code, f.at)
		if err != nil {
			panic(t.eb.fault(FaultBadOpcode, "%v", err))
		}
		f.pc = f.at + width

		switch op {
		case bytecode.OpNop:
		case bytecode.OpCopy:
			t.set(f, w(0), t.reg(f, w(1)))
		case bytecode.OpConst:
			t.set(f, w(0), t.constant(f, w(1)))
		case bytecode.OpThis:
			t.set(f, w(0), f.this)
		case bytecode.OpGlobal:
			t.set(f, w(0), t.vm.Global())
		case bytecode.OpSuper:
			home := f.closure.Home
			if home == nil || home.Super == nil {
				return value.Void(), t.eb.typeError("super used outside a derived class")
			}
			t.set(f, w(0), value.Obj(&SuperProxy{Class: home.Super, This: f.this}))
		case bytecode.OpParam:
			t.set(f, w(0), f.arg(int(w(1))))
		case bytecode.OpCollapse:
			var rest []value.Value
			if n := int(w(1)); n < len(f.args) {
				rest = append(rest, f.args[n:]...)
			}
			t.set(f, w(0), value.Obj(&Array{Elems: rest}))
		case bytecode.OpArray:
			n := int(w(1))
			elems := make([]value.Value, n)
			for i := range n {
				elems[i] = t.reg(f, w(2+i))
			}
			t.set(f, w(0), value.Obj(&Array{Elems: elems}))
		case bytecode.OpDict:
			d := NewDict()
			for i := range int(w(1)) {
				d.Set(t.reg(f, w(2+2*i)).String(), t.reg(f, w(3+2*i)))
			}
			t.set(f, w(0), value.Obj(d))
		case bytecode.OpFunc:
			c := &Closure{Unit: t.unit(w(1)), Chain: f.chain, This: f.this, Home: f.closure.Home}
			t.set(f, w(0), value.Obj(c))
		case bytecode.OpBlock:
			amap := t.accessMap(f, w(2))
			c := &Closure{Unit: t.unit(w(1)), Chain: f.chain, This: f.this, Home: f.closure.Home, AccessMap: amap}
			t.set(f, w(0), value.Obj(c))
		case bytecode.OpClass:
			v, err := t.defineClass(f, w(1), w(2), w(3))
			if err != nil {
				return value.Void(), err
			}
			t.set(f, w(0), v)
		case bytecode.OpProperty:
			p := &Property{Getter: t.optReg(f, w(1)), Setter: t.optReg(f, w(2))}
			t.set(f, w(0), value.Obj(p))
		case bytecode.OpAccessMap:
			t.set(f, w(0), value.Obj(newAccessMap()))
		case bytecode.OpEndAccessMap:
			t.accessMap(f, w(0)).close()
		case bytecode.OpChildWrite:
			t.accessMap(f, w(0)).put(t.name(f, w(1)), t.reg(f, w(2)))
		case bytecode.OpChildRead:
			t.set(f, w(0), t.accessMap(f, w(1)).get(t.name(f, w(2))))
		case bytecode.OpMapRead, bytecode.OpMapWrite:
			amap := f.closure.AccessMap
			if amap == nil {
				panic(t.eb.fault(FaultNoAccessMap, "%s outside a lazy block", op))
			}
			ok := true
			if op == bytecode.OpMapRead {
				var v value.Value
				v, ok = amap.load(t.name(f, w(1)))
				if ok {
					t.set(f, w(0), v)
				}
			} else {
				ok = amap.store(t.name(f, w(0)), t.reg(f, w(1)))
			}
			if !ok {
				return value.Void(), t.eb.typeError("block %s ran after its caller finished", f.unit.Name)
			}
		case bytecode.OpSharedRead:
			sf, slot := t.shared(f, w(1), w(2))
			t.set(f, w(0), sf.load(slot))
		case bytecode.OpSharedWrite:
			sf, slot := t.shared(f, w(0), w(1))
			sf.store(slot, t.reg(f, w(2)))
		case bytecode.OpCall:
			args := t.callArgs(f, w(3), w(4), 5)
			this := t.optReg(f, w(2))
			res, err := t.call(t.reg(f, w(1)), this, args)
			if err != nil {
				return value.Void(), err
			}
			t.set(f, w(0), res)
		case bytecode.OpNew:
			args := t.callArgs(f, w(2), w(3), 4)
			res, err := t.construct(t.reg(f, w(1)), args)
			if err != nil {
				return value.Void(), err
			}
			t.set(f, w(0), res)
		case bytecode.OpNeg, bytecode.OpPlus, bytecode.OpNot, bytecode.OpBitNot:
			res, err := value.Unary(unaryOps[op], t.reg(f, w(1)))
			if err != nil {
				return value.Void(), t.eb.typeError("%v", err)
			}
			t.set(f, w(0), res)
		case bytecode.OpDGet:
			res, err := t.dget(t.reg(f, w(1)), t.name(f, w(2)))
			if err != nil {
				return value.Void(), err
			}
			t.set(f, w(0), res)
		case bytecode.OpIGet:
			res, err := t.iget(t.reg(f, w(1)), t.reg(f, w(2)))
			if err != nil {
				return value.Void(), err
			}
			t.set(f, w(0), res)
		case bytecode.OpDSet:
			if err := t.dset(t.reg(f, w(0)), t.name(f, w(1)), t.reg(f, w(2))); err != nil {
				return value.Void(), err
			}
		case bytecode.OpISet:
			if err := t.iset(t.reg(f, w(0)), t.reg(f, w(1)), t.reg(f, w(2))); err != nil {
				return value.Void(), err
			}
		case bytecode.OpDDelete:
			res, err := t.ddelete(t.reg(f, w(1)), t.name(f, w(2)))
			if err != nil {
				return value.Void(), err
			}
			t.set(f, w(0), res)
		case bytecode.OpIDelete:
			res, err := t.idelete(t.reg(f, w(1)), t.reg(f, w(2)))
			if err != nil {
				return value.Void(), err
			}
			t.set(f, w(0), res)
		case bytecode.OpJump:
			f.pc = f.at + int(w(0))
		case bytecode.OpBranch:
			if t.reg(f, w(0)).Truthy() {
				f.pc = f.at + int(w(1))
			} else {
				f.pc = f.at + int(w(2))
			}
		case bytecode.OpReturn:
			return t.reg(f, w(0)), nil
		case bytecode.OpThrow:
			return value.Void(), &ScriptError{Value: t.reg(f, w(0)), Trace: t.tracer.String(t.prog)}
		case bytecode.OpEnterTry:
			f.tries = append(f.tries, tryEntry{id: w(2), catch: f.at + int(w(0)), reg: w(1)})
		case bytecode.OpExitTry:
			if n := len(f.tries); n == 0 || f.tries[n-1].id != w(0) {
				panic(t.eb.fault(FaultTryMismatch, "exit from try %d which is not innermost", w(0)))
			}
			f.tries = f.tries[:len(f.tries)-1]
		default:
			bin, ok := op.BinaryOp()
			if !ok {
				panic(t.eb.fault(FaultUnsupported, "opcode %s", op))
			}
			res, err := value.Binary(bin, t.reg(f, w(1)), t.reg(f, w(2)))
			if err != nil {
				return value.Void(), t.arithError(err)
			}
			t.set(f, w(0), res)
		}
	}
}

var unaryOps = map[bytecode.Opcode]value.UnaryOp{
	bytecode.OpNeg:    value.UnNeg,
	bytecode.OpPlus:   value.UnPlus,
	bytecode.OpNot:    value.UnNot,
	bytecode.OpBitNot: value.UnBitNot,
}

func (t *Thread) arithError(err error) error {
	if errors.Is(err, value.ErrDivisionByZero) {
		return t.eb.raise("ArithmeticError", "%v", err)
	}
	return t.eb.typeError("%v", err)
}

func (t *Thread) reg(f *Frame, r int32) value.Value {
	switch {
	case r >= 0 && int(r) < len(f.regs):
		return f.regs[r]
	case r == -1:
		return f.this
	case r == -2:
		return t.vm.Global()
	case r <= -3 && r != noReg:
		return f.arg(int(-3 - r))
	}
	panic(t.eb.badRegister(r))
}

// optReg reads r, or void when r is NoReg.
func (t *Thread) optReg(f *Frame, r int32) value.Value {
	if r == noReg {
		return value.Void()
	}
	return t.reg(f, r)
}

func (t *Thread) set(f *Frame, r int32, v value.Value) {
	if r == noReg {
		return
	}
	if r < 0 || int(r) >= len(f.regs) {
		panic(t.eb.badRegister(r))
	}
	f.regs[r] = v
}

func (t *Thread) constant(f *Frame, k int32) value.Value {
	if k < 0 || int(k) >= len(f.unit.Consts) {
		panic(t.eb.badOperand("constant", k))
	}
	return f.unit.Consts[k]
}

// name reads a string constant used as a member or variable name.
func (t *Thread) name(f *Frame, k int32) string {
	v := t.constant(f, k)
	if v.Kind() != value.KindString {
		panic(t.eb.fault(FaultBadOperand, "constant %d is %s, not a name", k, v.TypeName()))
	}
	return v.AsString()
}

func (t *Thread) unit(u int32) *bytecode.Unit {
	if u < 0 || int(u) >= len(t.prog.Units) {
		panic(t.eb.badOperand("unit", u))
	}
	return t.prog.Units[u]
}

func (t *Thread) shared(f *Frame, level, slot int32) (*SharedFrame, int) {
	if level < 0 || int(level) >= len(f.chain) || f.chain[level] == nil {
		panic(t.eb.badOperand("nesting level", level))
	}
	sf := f.chain[level]
	if slot < 0 || int(slot) >= len(sf.slots) {
		panic(t.eb.badOperand("shared slot", slot))
	}
	return sf, int(slot)
}

func (t *Thread) accessMap(f *Frame, r int32) *AccessMap {
	v := t.reg(f, r)
	if amap, ok := v.AsObject().(*AccessMap); ok && v.Kind() == value.KindObject {
		return amap
	}
	panic(t.eb.fault(FaultNoAccessMap, "register %d holds %s, not an access map", r, v.TypeName()))
}

// defineClass creates the class object and runs its body with the class as this.
func (t *Thread) defineClass(f *Frame, superReg, unit, nameConst int32) (value.Value, error) {
	cls := &Class{Name: t.name(f, nameConst), Members: NewDict()}
	if superReg != noReg {
		sv := t.reg(f, superReg)
		sup, ok := sv.AsObject().(*Class)
		if !ok || sv.Kind() != value.KindObject {
			return value.Void(), t.eb.typeError("class %s cannot extend %s", cls.Name, sv.TypeName())
		}
		cls.Super = sup
	}
	self := value.Obj(cls)
	body := &Closure{Unit: t.unit(unit), Chain: f.chain, This: self, Home: cls}
	if _, err := t.invoke(body, self, nil); err != nil {
		return value.Void(), err
	}
	return self, nil
}
