package ssa

import (
	"lumen/internal/ast"
	"lumen/internal/diag"
	"lumen/internal/value"
)

func (b *builder) stmts(list []ast.Stmt) {
	for _, s := range list {
		b.stmt(s)
	}
}

func (b *builder) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		b.expr(s.X)
	case *ast.VarDecl:
		b.varDecl(s)
	case *ast.Block:
		b.withScope(false, func() { b.stmts(s.Body) })
	case *ast.If:
		b.ifStmt(s)
	case *ast.While:
		b.whileStmt(s)
	case *ast.DoWhile:
		b.doWhileStmt(s)
	case *ast.For:
		b.forStmt(s)
	case *ast.Switch:
		b.switchStmt(s)
	case *ast.Case:
		b.fail(diag.CmpMisplacedCase, s.Span, "case outside of a switch body")
	case *ast.Break:
		b.breakStmt(s)
	case *ast.Continue:
		b.continueStmt(s)
	case *ast.Return:
		b.returnStmt(s)
	case *ast.Throw:
		v := b.expr(s.Value)
		b.emit(OpThrow, s.Span, v)
		b.newBlock("after throw")
	case *ast.Try:
		b.tryStmt(s)
	case *ast.FuncDecl:
		b.funcDecl(s)
	case *ast.ClassDecl:
		b.classDecl(s)
	case *ast.PropertyDecl:
		b.propertyDecl(s)
	case *ast.Label:
		b.labelStmt(s)
	case *ast.Goto:
		j := b.emit(OpJump, s.Span)
		b.gotos = append(b.gotos, pendingGoto{jump: j, name: s.Label, tries: append([]int(nil), b.tries...), span: s.Span})
		b.newBlock("after goto")
	case *ast.Empty:
	default:
		internalf("unexpected statement %T", s)
	}
}

func (b *builder) varDecl(s *ast.VarDecl) {
	for _, spec := range s.Vars {
		var v VarID
		if spec.Init != nil {
			v = b.expr(spec.Init)
		} else {
			v = b.constant(value.Void(), spec.Span)
		}
		b.declareName(spec.Name, v, spec.Span)
	}
}

func (b *builder) ifStmt(s *ast.If) {
	cond := b.expr(s.Cond)
	br := b.emit(OpBranch, s.Span, cond)
	b.setTrue(br, b.newBlock("if true"))
	b.stmt(s.Then)
	jThen := b.emit(OpJump, s.Span)
	if s.Else == nil {
		merge := b.newBlock("if merge")
		b.setJump(jThen, merge)
		b.setFalse(br, merge)
		return
	}
	b.setFalse(br, b.newBlock("if false"))
	b.stmt(s.Else)
	jElse := b.emit(OpJump, s.Span)
	merge := b.newBlock("if merge")
	b.setJump(jThen, merge)
	b.setJump(jElse, merge)
}

func (b *builder) pushTarget(loop bool) *jumpTarget {
	t := &jumpTarget{loop: loop, tries: len(b.tries)}
	b.targets = append(b.targets, t)
	return t
}

func (b *builder) popTarget(t *jumpTarget, exit, cont *Block) {
	b.targets = b.targets[:len(b.targets)-1]
	for _, j := range t.breaks {
		b.setJump(j, exit)
	}
	for _, j := range t.continues {
		b.setJump(j, cont)
	}
}

func (b *builder) whileStmt(s *ast.While) {
	entry := b.emit(OpJump, s.Span)
	header := b.newBlock("while cond")
	b.setJump(entry, header)
	cond := b.expr(s.Cond)
	br := b.emit(OpBranch, s.Span, cond)
	b.setTrue(br, b.newBlock("while body"))
	t := b.pushTarget(true)
	b.stmt(s.Body)
	back := b.emit(OpJump, s.Span)
	exit := b.newBlock("while exit")
	b.setJump(back, header)
	b.setFalse(br, exit)
	b.popTarget(t, exit, header)
}

func (b *builder) doWhileStmt(s *ast.DoWhile) {
	entry := b.emit(OpJump, s.Span)
	body := b.newBlock("do body")
	b.setJump(entry, body)
	t := b.pushTarget(true)
	b.stmt(s.Body)
	toCond := b.emit(OpJump, s.Span)
	condBlock := b.newBlock("do cond")
	b.setJump(toCond, condBlock)
	cond := b.expr(s.Cond)
	br := b.emit(OpBranch, s.Span, cond)
	exit := b.newBlock("do exit")
	b.setTrue(br, body)
	b.setFalse(br, exit)
	b.popTarget(t, exit, condBlock)
}

func (b *builder) forStmt(s *ast.For) {
	b.withScope(false, func() {
		if s.Init != nil {
			b.stmt(s.Init)
		}
		entry := b.emit(OpJump, s.Span)
		header := b.newBlock("for cond")
		b.setJump(entry, header)
		var br *Statement
		if s.Cond != nil {
			br = b.emit(OpBranch, s.Span, b.expr(s.Cond))
			b.setTrue(br, b.newBlock("for body"))
		} else {
			j := b.emit(OpJump, s.Span)
			b.setJump(j, b.newBlock("for body"))
		}
		t := b.pushTarget(true)
		b.stmt(s.Body)
		toStep := b.emit(OpJump, s.Span)
		step := b.newBlock("for step")
		b.setJump(toStep, step)
		if s.Step != nil {
			b.expr(s.Step)
		}
		back := b.emit(OpJump, s.Span)
		exit := b.newBlock("for exit")
		b.setJump(back, header)
		if br != nil {
			b.setFalse(br, exit)
		}
		b.popTarget(t, exit, step)
	})
}

// switchStmt chains one strict-equality test per case; a failed test falls
// to the next case test, and the last one to default or the exit.
func (b *builder) switchStmt(s *ast.Switch) {
	tag := b.expr(s.Tag)
	pending := b.emit(OpJump, s.Span)
	pendingIsJump := true
	var defaultBlock *Block
	t := b.pushTarget(false)
	b.withScope(false, func() {
		b.newBlock("switch head")
		for _, st := range s.Body {
			c, ok := st.(*ast.Case)
			if !ok {
				b.stmt(st)
				continue
			}
			fall := b.emit(OpJump, c.Span)
			if c.Expr == nil {
				if defaultBlock != nil {
					b.fail(diag.CmpDuplicateDefault, c.Span, "duplicate default in switch")
				}
				defaultBlock = b.newBlock("switch default")
				b.setJump(fall, defaultBlock)
				continue
			}
			test := b.newBlock("case test")
			if pendingIsJump {
				b.setJump(pending, test)
			} else {
				b.setFalse(pending, test)
			}
			val := b.expr(c.Expr)
			eq := b.binary(value.BinStrictEq, tag, val, c.Span)
			br := b.emit(OpBranch, c.Span, eq)
			body := b.newBlock("case body")
			b.setTrue(br, body)
			b.setJump(fall, body)
			pending, pendingIsJump = br, false
		}
		end := b.emit(OpJump, s.Span)
		exit := b.newBlock("switch exit")
		b.setJump(end, exit)
		miss := exit
		if defaultBlock != nil {
			miss = defaultBlock
		}
		if pendingIsJump {
			b.setJump(pending, miss)
		} else {
			b.setFalse(pending, miss)
		}
		b.popTarget(t, exit, nil)
	})
}

func (b *builder) breakStmt(s *ast.Break) {
	if len(b.targets) == 0 {
		b.fail(diag.CmpMisplacedBreak, s.Span, "break outside of a loop or switch")
	}
	t := b.targets[len(b.targets)-1]
	b.exitTries(t.tries, s.Span)
	t.breaks = append(t.breaks, b.jumpOut(s.Span, "after break"))
}

func (b *builder) continueStmt(s *ast.Continue) {
	for i := len(b.targets) - 1; i >= 0; i-- {
		t := b.targets[i]
		if !t.loop {
			continue
		}
		b.exitTries(t.tries, s.Span)
		t.continues = append(t.continues, b.jumpOut(s.Span, "after continue"))
		return
	}
	b.fail(diag.CmpMisplacedContinue, s.Span, "continue outside of a loop")
}

func (b *builder) returnStmt(s *ast.Return) {
	var v VarID
	if s.Value != nil {
		v = b.expr(s.Value)
	} else {
		v = b.constant(value.Void(), s.Span)
	}
	b.exitTries(0, s.Span)
	b.emit(OpReturn, s.Span, v)
	b.newBlock("after return")
}

// tryStmt lowers a guarded region inline. The catch block inherits the
// namespace of the try entry; writes inside the body that reach outer
// variables pin them, so the handler observes their latest values.
func (b *builder) tryStmt(s *ast.Try) {
	f := b.f
	id := f.TryCount
	f.TryCount++
	enter := b.emit(OpEnterTry, s.Span)
	enter.Index = id
	exc := f.declare(enter, "", "")
	catchNS := f.ns.clone()

	region := &tryRegion{}
	b.regions = append(b.regions, region)
	b.tries = append(b.tries, id)
	b.setJump(enter, b.newBlock("try body"))
	b.withScope(true, func() { b.stmts(s.Body.Body) })
	b.tries = b.tries[:len(b.tries)-1]
	b.regions = b.regions[:len(b.regions)-1]
	exit := b.emit(OpExitTry, s.Span)
	exit.Index = id
	done := b.emit(OpJump, s.Span)

	f.cur.ns = f.ns.clone()
	handler := f.addBlock("catch")
	f.cur = handler
	f.ns = catchNS
	for _, r := range b.regions {
		r.blocks = append(r.blocks, handler.ID)
	}
	handler.ExcPreds = region.blocks
	b.setCatch(enter, handler)
	b.withScope(false, func() {
		if s.CatchName != "" {
			b.declareName(s.CatchName, exc, s.Catch.Span)
		}
		b.stmts(s.Catch.Body)
	})
	caught := b.emit(OpJump, s.Span)
	after := b.newBlock("try exit")
	b.setJump(done, after)
	b.setJump(caught, after)
}

func (b *builder) labelStmt(s *ast.Label) {
	if _, dup := b.labels[s.Name]; dup {
		b.fail(diag.CmpDuplicateLabel, s.Span, "label '%s' is already defined", s.Name)
	}
	j := b.emit(OpJump, s.Span)
	blk := b.newBlock("label " + s.Name)
	b.setJump(j, blk)
	b.labels[s.Name] = &label{block: blk, tries: append([]int(nil), b.tries...), span: s.Span}
}
