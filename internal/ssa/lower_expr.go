package ssa

import (
	"lumen/internal/ast"
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/value"
)

func (b *builder) expr(e ast.Expr) VarID {
	switch e := e.(type) {
	case *ast.Literal:
		return b.constant(e.Value, e.Span)
	case *ast.Ident:
		return b.readName(e.Name, e.Span)
	case *ast.This:
		v, _ := b.emitValue(OpAssignThis, e.Span)
		return v
	case *ast.Super:
		return b.super(e.Span)
	case *ast.Global:
		v, _ := b.emitValue(OpAssignGlobal, e.Span)
		return v
	case *ast.Unary:
		return b.unary(e.Op, b.expr(e.X), e.Span)
	case *ast.IncDec:
		return b.incDec(e)
	case *ast.Binary:
		x := b.expr(e.X)
		y := b.expr(e.Y)
		return b.binary(e.Op, x, y, e.Span)
	case *ast.Logical:
		return b.logical(e)
	case *ast.Cond:
		return b.cond(e)
	case *ast.Assign:
		return b.assign(e)
	case *ast.Member:
		obj := b.expr(e.X)
		r, s := b.emitValue(OpDGet, e.Span, obj)
		s.Name = e.Name
		return r
	case *ast.Index:
		obj := b.expr(e.X)
		key := b.expr(e.Key)
		r, _ := b.emitValue(OpIGet, e.Span, obj, key)
		return r
	case *ast.Call:
		return b.call(e)
	case *ast.New:
		return b.newExpr(e)
	case *ast.ArrayLit:
		elems := make([]VarID, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = b.expr(el)
		}
		r, _ := b.emitValue(OpNewArray, e.Span, elems...)
		return r
	case *ast.DictLit:
		pairs := make([]VarID, 0, 2*len(e.Entries))
		for _, en := range e.Entries {
			pairs = append(pairs, b.expr(en.Key), b.expr(en.Value))
		}
		r, _ := b.emitValue(OpNewDict, e.Span, pairs...)
		return r
	case *ast.FuncLit:
		return b.function(e.Func, funcFormKinds[e.Func.Kind])
	case *ast.Delete:
		return b.deleteExpr(e)
	}
	internalf("unexpected expression %T", e)
	return NoVar
}

func (b *builder) super(span source.Span) VarID {
	inClass := false
	for p := b.f; p != nil; p = p.Parent {
		if p.Kind == FormClass {
			inClass = true
			break
		}
	}
	if !inClass {
		b.fail(diag.CmpBadSuper, span, "super is only available inside a class")
	}
	v, _ := b.emitValue(OpAssignSuper, span)
	return v
}

// binary folds constant operands with the same operation the VM runs;
// operands that would fail at run time are left unfolded so the failure
// surfaces as a script exception.
func (b *builder) binary(op value.BinaryOp, x, y VarID, span source.Span) VarID {
	vx, vy := b.f.Vars[x], b.f.Vars[y]
	if b.f.sess.fold && vx.IsConst && vy.IsConst {
		r, err := value.Binary(op, vx.Const, vy.Const)
		if err == nil {
			return b.constant(r, span)
		}
		b.f.sess.warning(b.f.errorf(diag.CmpConstantFold, span, "'%s' on constants will fail at run time: %v", op, err))
	}
	r, s := b.emitValue(OpBinary, span, x, y)
	s.Bin = op
	return r
}

func (b *builder) unary(op value.UnaryOp, x VarID, span source.Span) VarID {
	vx := b.f.Vars[x]
	if b.f.sess.fold && vx.IsConst {
		r, err := value.Unary(op, vx.Const)
		if err == nil {
			return b.constant(r, span)
		}
		b.f.sess.warning(b.f.errorf(diag.CmpConstantFold, span, "'%s' on a constant will fail at run time: %v", op, err))
	}
	r, s := b.emitValue(OpUnary, span, x)
	s.Un = op
	return r
}

// merged evaluates a value along several paths through a hidden variable,
// letting phi synthesis join the paths.
func (b *builder) merged(span source.Span, fn func(hidden string)) VarID {
	var r VarID
	b.withScope(false, func() {
		hidden := b.f.sess.hiddenName("t")
		b.declareName(hidden, b.constant(value.Void(), span), span)
		fn(hidden)
		r = b.readName(hidden, span)
	})
	return r
}

func (b *builder) logical(e *ast.Logical) VarID {
	return b.merged(e.Span, func(hidden string) {
		x := b.expr(e.X)
		b.writeName(hidden, x, e.Span)
		br := b.emit(OpBranch, e.Span, x)
		rhs := b.newBlock("logical rhs")
		if e.And {
			b.setTrue(br, rhs)
		} else {
			b.setFalse(br, rhs)
		}
		b.writeName(hidden, b.expr(e.Y), e.Span)
		j := b.emit(OpJump, e.Span)
		merge := b.newBlock("logical merge")
		b.setJump(j, merge)
		if e.And {
			b.setFalse(br, merge)
		} else {
			b.setTrue(br, merge)
		}
	})
}

func (b *builder) cond(e *ast.Cond) VarID {
	return b.merged(e.Span, func(hidden string) {
		br := b.emit(OpBranch, e.Span, b.expr(e.Cond))
		b.setTrue(br, b.newBlock("cond true"))
		b.writeName(hidden, b.expr(e.Then), e.Span)
		jt := b.emit(OpJump, e.Span)
		b.setFalse(br, b.newBlock("cond false"))
		b.writeName(hidden, b.expr(e.Else), e.Span)
		jf := b.emit(OpJump, e.Span)
		merge := b.newBlock("cond merge")
		b.setJump(jt, merge)
		b.setJump(jf, merge)
	})
}

type lvalueKind uint8

const (
	lvName lvalueKind = iota
	lvMember
	lvIndex
	lvArray
)

// lvalue is the evaluation context of an assignment target: the parts that
// must be evaluated exactly once are computed by prepare.
type lvalue struct {
	kind  lvalueKind
	span  source.Span
	name  string
	obj   VarID
	key   VarID
	elems []*lvalue
}

func (b *builder) prepare(e ast.Expr) *lvalue {
	switch e := e.(type) {
	case *ast.Ident:
		return &lvalue{kind: lvName, span: e.Span, name: e.Name}
	case *ast.Member:
		return &lvalue{kind: lvMember, span: e.Span, name: e.Name, obj: b.expr(e.X)}
	case *ast.Index:
		obj := b.expr(e.X)
		return &lvalue{kind: lvIndex, span: e.Span, obj: obj, key: b.expr(e.Key)}
	case *ast.ArrayLit:
		lv := &lvalue{kind: lvArray, span: e.Span}
		for _, el := range e.Elems {
			lv.elems = append(lv.elems, b.prepare(el))
		}
		return lv
	}
	internalf("expression %T is not assignable", e)
	return nil
}

func (b *builder) read(lv *lvalue) VarID {
	switch lv.kind {
	case lvName:
		return b.readName(lv.name, lv.span)
	case lvMember:
		r, s := b.emitValue(OpDGet, lv.span, lv.obj)
		s.Name = lv.name
		return r
	case lvIndex:
		r, _ := b.emitValue(OpIGet, lv.span, lv.obj, lv.key)
		return r
	}
	elems := make([]VarID, len(lv.elems))
	for i, el := range lv.elems {
		elems[i] = b.read(el)
	}
	r, _ := b.emitValue(OpNewArray, lv.span, elems...)
	return r
}

func (b *builder) write(lv *lvalue, v VarID) {
	switch lv.kind {
	case lvName:
		b.writeName(lv.name, v, lv.span)
	case lvMember:
		s := b.emit(OpDSet, lv.span, lv.obj, v)
		s.Name = lv.name
	case lvIndex:
		b.emit(OpISet, lv.span, lv.obj, lv.key, v)
	case lvArray:
		for i, el := range lv.elems {
			idx := b.constant(value.Int(int64(i)), el.span)
			item, _ := b.emitValue(OpIGet, el.span, v, idx)
			b.write(el, item)
		}
	}
}

func (b *builder) assign(e *ast.Assign) VarID {
	lv := b.prepare(e.Target)
	if !e.Compound {
		v := b.expr(e.Value)
		b.write(lv, v)
		return v
	}
	old := b.read(lv)
	rhs := b.expr(e.Value)
	v := b.binary(e.Op, old, rhs, e.Span)
	b.write(lv, v)
	return v
}

func (b *builder) incDec(e *ast.IncDec) VarID {
	lv := b.prepare(e.X)
	old := b.unary(value.UnPlus, b.read(lv), e.Span)
	op := value.BinSub
	if e.Inc {
		op = value.BinAdd
	}
	v := b.binary(op, old, b.constant(value.Int(1), e.Span), e.Span)
	b.write(lv, v)
	if e.Prefix {
		return v
	}
	return old
}

func (b *builder) deleteExpr(e *ast.Delete) VarID {
	switch x := e.X.(type) {
	case *ast.Member:
		obj := b.expr(x.X)
		r, s := b.emitValue(OpDDelete, e.Span, obj)
		s.Name = x.Name
		return r
	case *ast.Index:
		obj := b.expr(x.X)
		key := b.expr(x.Key)
		r, _ := b.emitValue(OpIDelete, e.Span, obj, key)
		return r
	}
	b.fail(diag.SynInvalidLValue, e.Span, "delete needs a member or an element")
	return NoVar
}
