package parser

import (
	"lumen/internal/ast"
	"lumen/internal/diag"
	"lumen/internal/token"
)

func (p *Parser) parseStmt() ast.Stmt {
	errs := p.errors
	before := p.tok.Span
	st := p.parseStmtInner()
	if p.errors > errs {
		p.sync()
		if p.tok.Span == before && !p.at(token.EOF) {
			p.advance() // guarantee progress
		}
	}
	return st
}

func (p *Parser) parseStmtInner() ast.Stmt {
	start := p.tok.Span
	switch p.tok.Kind {
	case token.Semicolon:
		p.advance()
		return &ast.Empty{At: ast.At{Span: start}}
	case token.LBrace:
		return p.parseBlock()
	case token.KwVar:
		return p.parseVarDecl(true)
	case token.KwFunction:
		if p.peek(0).Kind == token.Ident {
			fn := p.parseFunc(ast.FuncPlain, true)
			return &ast.FuncDecl{At: ast.At{Span: fn.Span}, Func: fn}
		}
	case token.KwClass:
		return p.parseClass()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		p.advance()
		cond := p.parseParenExpr()
		body := p.parseStmt()
		return &ast.While{At: ast.At{Span: p.span(start)}, Cond: cond, Body: body}
	case token.KwDo:
		p.advance()
		body := p.parseStmt()
		p.expect(token.KwWhile, diag.SynUnexpectedToken)
		cond := p.parseParenExpr()
		p.semicolon()
		return &ast.DoWhile{At: ast.At{Span: p.span(start)}, Body: body, Cond: cond}
	case token.KwFor:
		return p.parseFor()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwCase:
		p.advance()
		x := p.parseExpr()
		p.expect(token.Colon, diag.SynUnexpectedToken)
		return &ast.Case{At: ast.At{Span: p.span(start)}, Expr: x}
	case token.KwDefault:
		p.advance()
		p.expect(token.Colon, diag.SynUnexpectedToken)
		return &ast.Case{At: ast.At{Span: p.span(start)}}
	case token.KwBreak:
		p.advance()
		p.semicolon()
		return &ast.Break{At: ast.At{Span: start}}
	case token.KwContinue:
		p.advance()
		p.semicolon()
		return &ast.Continue{At: ast.At{Span: start}}
	case token.KwReturn:
		p.advance()
		var x ast.Expr
		if !p.at(token.Semicolon, token.RBrace, token.EOF) {
			x = p.parseExpr()
		}
		p.semicolon()
		return &ast.Return{At: ast.At{Span: p.span(start)}, Value: x}
	case token.KwThrow:
		p.advance()
		x := p.parseExpr()
		p.semicolon()
		return &ast.Throw{At: ast.At{Span: p.span(start)}, Value: x}
	case token.KwTry:
		return p.parseTry()
	case token.KwGoto:
		p.advance()
		name, _, _ := p.expectIdent()
		p.semicolon()
		return &ast.Goto{At: ast.At{Span: p.span(start)}, Label: name}
	case token.Ident:
		if p.peek(0).Kind == token.Colon {
			name := p.advance().Text
			p.advance()
			return &ast.Label{At: ast.At{Span: p.span(start)}, Name: name}
		}
	}
	x := p.parseExpr()
	p.semicolon()
	return &ast.ExprStmt{At: ast.At{Span: p.span(start)}, X: x}
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.tok.Span
	blk := &ast.Block{}
	if !p.expect(token.LBrace, diag.SynUnexpectedToken) {
		blk.Span = start
		return blk
	}
	for !p.at(token.RBrace, token.EOF) {
		if st := p.parseStmt(); st != nil {
			blk.Body = append(blk.Body, st)
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace)
	blk.Span = p.span(start)
	return blk
}

func (p *Parser) parseVarDecl(withSemicolon bool) *ast.VarDecl {
	start := p.advance().Span
	decl := &ast.VarDecl{}
	for {
		name, sp, ok := p.expectIdent()
		if !ok {
			break
		}
		spec := ast.VarSpec{At: ast.At{Span: sp}, Name: name}
		if p.eat(token.Assign) {
			spec.Init = p.parseAssign()
			spec.Span = p.span(sp)
		}
		decl.Vars = append(decl.Vars, spec)
		if !p.eat(token.Comma) {
			break
		}
	}
	if withSemicolon {
		p.semicolon()
	}
	decl.Span = p.span(start)
	return decl
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.advance().Span
	cond := p.parseParenExpr()
	then := p.parseStmt()
	var els ast.Stmt
	if p.eat(token.KwElse) {
		els = p.parseStmt()
	}
	return &ast.If{At: ast.At{Span: p.span(start)}, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.advance().Span
	p.expect(token.LParen, diag.SynUnexpectedToken)
	st := &ast.For{}
	switch {
	case p.at(token.Semicolon):
	case p.at(token.KwVar):
		st.Init = p.parseVarDecl(false)
	default:
		x := p.parseExpr()
		st.Init = &ast.ExprStmt{At: ast.At{Span: x.Pos()}, X: x}
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	if !p.at(token.Semicolon) {
		st.Cond = p.parseExpr()
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	if !p.at(token.RParen) {
		st.Step = p.parseExpr()
	}
	p.expect(token.RParen, diag.SynUnclosedParen)
	st.Body = p.parseStmt()
	st.Span = p.span(start)
	return st
}

func (p *Parser) parseSwitch() ast.Stmt {
	start := p.advance().Span
	tag := p.parseParenExpr()
	body := p.parseBlock()
	return &ast.Switch{At: ast.At{Span: p.span(start)}, Tag: tag, Body: body.Body}
}

func (p *Parser) parseTry() ast.Stmt {
	start := p.advance().Span
	st := &ast.Try{Body: p.parseBlock()}
	p.expect(token.KwCatch, diag.SynUnexpectedToken)
	if p.eat(token.LParen) {
		if !p.at(token.RParen) {
			st.CatchName, _, _ = p.expectIdent()
		}
		p.expect(token.RParen, diag.SynUnclosedParen)
	}
	st.Catch = p.parseBlock()
	st.Span = p.span(start)
	return st
}

func (p *Parser) parseClass() ast.Stmt {
	start := p.advance().Span
	name, _, _ := p.expectIdent()
	cls := &ast.ClassDecl{Name: name}
	if p.eat(token.KwExtends) {
		cls.Super = p.parseUnary()
	}
	p.expect(token.LBrace, diag.SynUnexpectedToken)
	for !p.at(token.RBrace, token.EOF) {
		errs := p.errors
		mstart := p.tok.Span
		switch p.tok.Kind {
		case token.KwVar:
			cls.Body = append(cls.Body, p.parseVarDecl(true))
		case token.KwFunction:
			fn := p.parseFunc(ast.FuncPlain, true)
			cls.Body = append(cls.Body, &ast.FuncDecl{At: ast.At{Span: fn.Span}, Func: fn})
		case token.KwProperty:
			cls.Body = append(cls.Body, p.parseProperty())
		case token.Semicolon:
			p.advance()
		default:
			p.errorf(diag.SynBadClassMember, p.tok.Span, "expected var, function or property in class body, found %q", p.describe(p.tok))
		}
		if p.errors > errs {
			p.sync()
			if p.tok.Span == mstart && !p.at(token.EOF) {
				p.advance()
			}
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace)
	cls.Span = p.span(start)
	return cls
}

// parseProperty reads `property name { getter { ... } setter (v) { ... } }`.
func (p *Parser) parseProperty() ast.Stmt {
	start := p.advance().Span
	name, _, _ := p.expectIdent()
	prop := &ast.PropertyDecl{Name: name}
	p.expect(token.LBrace, diag.SynUnexpectedToken)
	for p.at(token.Ident) {
		accStart := p.tok.Span
		switch p.tok.Text {
		case "getter":
			p.advance()
			fn := &ast.Func{Kind: ast.FuncGetter, Name: "getter " + name}
			if p.eat(token.LParen) {
				p.expect(token.RParen, diag.SynUnclosedParen)
			}
			fn.Body = p.parseBlock().Body
			fn.Span = p.span(accStart)
			prop.Getter = fn
		case "setter":
			p.advance()
			fn := &ast.Func{Kind: ast.FuncSetter, Name: "setter " + name}
			p.expect(token.LParen, diag.SynUnexpectedToken)
			if param, _, ok := p.expectIdent(); ok {
				fn.Params = []string{param}
			}
			p.expect(token.RParen, diag.SynUnclosedParen)
			fn.Body = p.parseBlock().Body
			fn.Span = p.span(accStart)
			prop.Setter = fn
		default:
			p.errorf(diag.SynBadClassMember, p.tok.Span, "expected getter or setter, found %q", p.tok.Text)
			p.advance()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace)
	prop.Span = p.span(start)
	return prop
}

// parseFunc reads `function [name] (params) { body }`.
func (p *Parser) parseFunc(kind ast.FuncKind, named bool) *ast.Func {
	start := p.advance().Span
	fn := &ast.Func{Kind: kind}
	if named || p.at(token.Ident) {
		fn.Name, _, _ = p.expectIdent()
	}
	p.expect(token.LParen, diag.SynUnexpectedToken)
	p.parseParams(fn, token.RParen)
	p.expect(token.RParen, diag.SynUnclosedParen)
	fn.Body = p.parseBlock().Body
	fn.Span = p.span(start)
	return fn
}

// parseParams fills the parameter list up to (not including) closer.
func (p *Parser) parseParams(fn *ast.Func, closer token.Kind) {
	for !p.at(closer, token.EOF) {
		if fn.Collapse != "" || fn.UnnamedTail {
			p.errorf(diag.SynBadParameter, p.tok.Span, "variadic parameter must be last")
		}
		if p.eat(token.Star) {
			fn.UnnamedTail = true
		} else {
			name, _, ok := p.expectIdent()
			if !ok {
				return
			}
			if p.eat(token.Star) {
				fn.Collapse = name
			} else {
				fn.Params = append(fn.Params, name)
			}
		}
		if !p.eat(token.Comma) {
			return
		}
	}
}

func (p *Parser) parseParenExpr() ast.Expr {
	p.expect(token.LParen, diag.SynUnexpectedToken)
	x := p.parseExpr()
	p.expect(token.RParen, diag.SynUnclosedParen)
	return x
}
