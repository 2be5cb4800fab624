package ssa

import (
	"lumen/internal/ast"
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/value"
)

var funcFormKinds = [...]FormKind{
	ast.FuncPlain:  FormFunction,
	ast.FuncGetter: FormGetter,
	ast.FuncSetter: FormSetter,
	ast.FuncBlock:  FormLazyBlock,
}

// childForm compiles fn into a new form nested in the current one.
func (b *builder) childForm(fn *ast.Func, kind FormKind) *Form {
	name := fn.Name
	if name == "" {
		name = "anonymous " + kind.String()
	}
	cf := newForm(b.f.sess, b.f, kind, name, fn.Span)
	cf.NumParams = len(fn.Params)
	cf.Collapse = fn.Collapse != ""
	cf.UnnamedTail = fn.UnnamedTail
	cb := newBuilder(cf)
	for i, p := range fn.Params {
		v, s := cb.emitValue(OpAssignParam, fn.Span)
		s.Index = i
		cb.declareName(p, v, fn.Span)
	}
	if fn.Collapse != "" {
		v, s := cb.emitValue(OpAssignCollapse, fn.Span)
		s.Index = len(fn.Params)
		cb.declareName(fn.Collapse, v, fn.Span)
	}
	cb.stmts(fn.Body)
	cb.finish(fn.Span)
	return cf
}

// function compiles fn and returns the closure made from it.
func (b *builder) function(fn *ast.Func, kind FormKind) VarID {
	cf := b.childForm(fn, kind)
	r, s := b.emitValue(OpDefineFunction, fn.Span)
	s.Child = cf
	return r
}

func (b *builder) funcDecl(s *ast.FuncDecl) {
	if b.f.Kind == FormClass {
		b.member(s.Func.Name, b.function(s.Func, FormFunction), s.Span)
		return
	}
	// Declared first so the body can call itself.
	b.f.ns.add(s.Func.Name, b.f.sess.number(s.Func.Name))
	b.writeName(s.Func.Name, b.function(s.Func, FormFunction), s.Span)
}

// member stores v as a member of the class being defined.
func (b *builder) member(name string, v VarID, span source.Span) {
	this, _ := b.emitValue(OpAssignThis, span)
	s := b.emit(OpDSet, span, this, v)
	s.Name = name
}

func (b *builder) classDecl(s *ast.ClassDecl) {
	var super VarID = NoVar
	if s.Super != nil {
		super = b.expr(s.Super)
	}
	b.f.ns.add(s.Name, b.f.sess.number(s.Name))
	cf := newForm(b.f.sess, b.f, FormClass, s.Name, s.Span)
	cb := newBuilder(cf)
	for _, m := range s.Body {
		if vd, ok := m.(*ast.VarDecl); ok {
			for _, spec := range vd.Vars {
				v := cb.constant(value.Void(), spec.Span)
				if spec.Init != nil {
					v = cb.expr(spec.Init)
				}
				cb.member(spec.Name, v, spec.Span)
			}
			continue
		}
		cb.stmt(m)
	}
	cb.finish(s.Span)
	var st *Statement
	var cls VarID
	if super != NoVar {
		cls, st = b.emitValue(OpDefineClass, s.Span, super)
	} else {
		cls, st = b.emitValue(OpDefineClass, s.Span)
	}
	st.Child = cf
	st.Name = s.Name
	b.writeName(s.Name, cls, s.Span)
}

func (b *builder) propertyDecl(s *ast.PropertyDecl) {
	var used []VarID
	var props PropFlags
	if s.Getter != nil {
		used = append(used, b.function(s.Getter, FormGetter))
		props |= PropGetter
	}
	if s.Setter != nil {
		used = append(used, b.function(s.Setter, FormSetter))
		props |= PropSetter
	}
	prop, st := b.emitValue(OpDefineProperty, s.Span, used...)
	st.Props = props
	st.Name = s.Name
	if b.f.Kind == FormClass {
		b.member(s.Name, prop, s.Span)
		return
	}
	b.declareName(s.Name, prop, s.Span)
}

// args lowers an argument list into operands and their kinds.
func (b *builder) args(list []ast.Arg, span source.Span) ([]VarID, []ArgKind) {
	var used []VarID
	var kinds []ArgKind
	for _, a := range list {
		switch {
		case a.Value == nil:
			if !b.f.UnnamedTail {
				b.fail(diag.CmpBadUnnamedExpand, span, "'*' forwards the unnamed tail, but %s has none", b.f.Name)
			}
			kinds = append(kinds, ArgUnnamedExpand)
		case a.Expand:
			used = append(used, b.expr(a.Value))
			kinds = append(kinds, ArgExpand)
		default:
			used = append(used, b.expr(a.Value))
			kinds = append(kinds, ArgPlain)
		}
	}
	return used, kinds
}

func (b *builder) call(e *ast.Call) VarID {
	info := &CallInfo{Omit: e.Omit}
	var used []VarID
	switch fn := e.Fn.(type) {
	case *ast.Member:
		obj := b.expr(fn.X)
		m, s := b.emitValue(OpDGet, fn.Span, obj)
		s.Name = fn.Name
		used = append(used, m, obj)
		info.HasThis = true
	case *ast.Index:
		obj := b.expr(fn.X)
		key := b.expr(fn.Key)
		m, _ := b.emitValue(OpIGet, fn.Span, obj, key)
		used = append(used, m, obj)
		info.HasThis = true
	default:
		used = append(used, b.expr(e.Fn))
	}
	args, kinds := b.args(e.Args, e.Span)
	used = append(used, args...)
	info.Args = kinds
	if e.Block == nil {
		r, s := b.emitValue(OpCall, e.Span, used...)
		s.Call = info
		return r
	}
	return b.lazyBlockCall(e, used, info)
}

// lazyBlockCall passes a trailing block to the callee. The block reaches the
// caller's locals through an access map: every name it touches is copied in
// before the call and every name it writes is copied back after.
func (b *builder) lazyBlockCall(e *ast.Call, used []VarID, info *CallInfo) VarID {
	span := e.Block.Span
	amap, _ := b.emitValue(OpDefineAccessMap, span)
	cf := b.childForm(e.Block, FormLazyBlock)
	blk, def := b.emitValue(OpDefineLazyBlock, span, amap)
	def.Child = cf
	for _, name := range cf.Access.Reads {
		b.childWrite(amap, name, span)
	}
	for _, name := range cf.Access.Writes {
		if !cf.Access.read[name] {
			b.childWrite(amap, name, span)
		}
	}
	info.Args = append(info.Args, ArgPlain)
	r, s := b.emitValue(OpCall, e.Span, append(used, blk)...)
	s.Call = info
	for _, name := range cf.Access.Writes {
		v, cr := b.emitValue(OpChildRead, span, amap)
		cr.Name = name
		b.writeName(name, v, span)
	}
	b.emit(OpEndAccessMap, span, amap)
	return r
}

func (b *builder) childWrite(amap VarID, name string, span source.Span) {
	s := b.emit(OpChildWrite, span, amap, b.readName(name, span))
	s.Name = name
}

func (b *builder) newExpr(e *ast.New) VarID {
	cls := b.expr(e.Class)
	args, kinds := b.args(e.Args, e.Span)
	r, s := b.emitValue(OpNew, e.Span, append([]VarID{cls}, args...)...)
	s.Call = &CallInfo{Omit: e.Omit, Args: kinds}
	return r
}
