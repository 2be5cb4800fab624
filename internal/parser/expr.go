package parser

import (
	"strconv"
	"strings"

	"lumen/internal/ast"
	"lumen/internal/diag"
	"lumen/internal/token"
	"lumen/internal/value"
)

// binaryPrec maps binary operator tokens to precedence (higher binds tighter).
var binaryPrec = map[token.Kind]int{
	token.OrOr:   1,
	token.AndAnd: 2,
	token.Pipe:   3,
	token.Caret:  4,
	token.Amp:    5,
	token.EqEq:   6, token.BangEq: 6, token.EqEqEq: 6, token.BangEqEq: 6,
	token.Lt: 7, token.Gt: 7, token.LtEq: 7, token.GtEq: 7,
	token.Shl: 8, token.Shr: 8, token.UShr: 8,
	token.Plus: 9, token.Minus: 9,
	token.Star: 10, token.Slash: 10, token.Backslash: 10, token.Percent: 10,
}

var binaryOps = map[token.Kind]value.BinaryOp{
	token.Pipe: value.BinBitOr, token.Caret: value.BinBitXor, token.Amp: value.BinBitAnd,
	token.EqEq: value.BinEq, token.BangEq: value.BinNe, token.EqEqEq: value.BinStrictEq, token.BangEqEq: value.BinStrictNe,
	token.Lt: value.BinLt, token.Gt: value.BinGt, token.LtEq: value.BinLe, token.GtEq: value.BinGe,
	token.Shl: value.BinShl, token.Shr: value.BinShr, token.UShr: value.BinUShr,
	token.Plus: value.BinAdd, token.Minus: value.BinSub,
	token.Star: value.BinMul, token.Slash: value.BinDiv, token.Backslash: value.BinIDiv, token.Percent: value.BinMod,
}

var compoundOps = map[token.Kind]value.BinaryOp{
	token.PlusAssign: value.BinAdd, token.MinusAssign: value.BinSub, token.StarAssign: value.BinMul,
	token.SlashAssign: value.BinDiv, token.BackslashAssign: value.BinIDiv, token.PercentAssign: value.BinMod,
	token.AmpAssign: value.BinBitAnd, token.PipeAssign: value.BinBitOr, token.CaretAssign: value.BinBitXor,
	token.ShlAssign: value.BinShl, token.ShrAssign: value.BinShr, token.UShrAssign: value.BinUShr,
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

func (p *Parser) parseAssign() ast.Expr {
	lhs := p.parseTernary()
	start := lhs.Pos()
	switch {
	case p.at(token.Assign):
		p.advance()
		p.checkLValue(lhs)
		rhs := p.parseAssign()
		return &ast.Assign{At: ast.At{Span: p.span(start)}, Target: lhs, Value: rhs}
	default:
		op, ok := compoundOps[p.tok.Kind]
		if !ok {
			return lhs
		}
		p.advance()
		p.checkLValue(lhs)
		if _, isArray := lhs.(*ast.ArrayLit); isArray {
			p.errorf(diag.SynInvalidLValue, lhs.Pos(), "compound assignment to an array pattern")
		}
		rhs := p.parseAssign()
		return &ast.Assign{At: ast.At{Span: p.span(start)}, Compound: true, Op: op, Target: lhs, Value: rhs}
	}
}

func (p *Parser) checkLValue(x ast.Expr) {
	if !ast.IsLValue(x) {
		p.errorf(diag.SynInvalidLValue, x.Pos(), "invalid assignment target")
	}
}

func (p *Parser) parseTernary() ast.Expr {
	cond := p.parseBinary(1)
	if !p.at(token.Question) {
		return cond
	}
	p.advance()
	then := p.parseAssign()
	p.expect(token.Colon, diag.SynUnexpectedToken)
	els := p.parseAssign()
	return &ast.Cond{At: ast.At{Span: p.span(cond.Pos())}, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	lhs := p.parseUnary()
	for {
		prec, ok := binaryPrec[p.tok.Kind]
		if !ok || prec < minPrec {
			return lhs
		}
		op := p.advance()
		rhs := p.parseBinary(prec + 1)
		sp := lhs.Pos().Cover(rhs.Pos())
		switch op.Kind {
		case token.AndAnd, token.OrOr:
			lhs = &ast.Logical{At: ast.At{Span: sp}, And: op.Kind == token.AndAnd, X: lhs, Y: rhs}
		default:
			lhs = &ast.Binary{At: ast.At{Span: sp}, Op: binaryOps[op.Kind], X: lhs, Y: rhs}
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.tok.Span
	var op value.UnaryOp
	switch p.tok.Kind {
	case token.Bang:
		op = value.UnNot
	case token.Tilde:
		op = value.UnBitNot
	case token.Minus:
		op = value.UnNeg
	case token.Plus:
		op = value.UnPlus
	case token.PlusPlus, token.MinusMinus:
		inc := p.advance().Kind == token.PlusPlus
		x := p.parseUnary()
		p.checkLValue(x)
		return &ast.IncDec{At: ast.At{Span: p.span(start)}, Inc: inc, Prefix: true, X: x}
	case token.KwDelete:
		p.advance()
		x := p.parseUnary()
		switch x.(type) {
		case *ast.Member, *ast.Index:
		default:
			p.errorf(diag.SynInvalidLValue, x.Pos(), "delete expects a member or index expression")
		}
		return &ast.Delete{At: ast.At{Span: p.span(start)}, X: x}
	default:
		return p.parsePostfix()
	}
	p.advance()
	x := p.parseUnary()
	return &ast.Unary{At: ast.At{Span: p.span(start)}, Op: op, X: x}
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		start := x.Pos()
		switch p.tok.Kind {
		case token.Dot:
			p.advance()
			name := p.tok.Text
			if p.at(token.Ident) || p.tok.Kind.IsKeyword() {
				p.advance()
			} else {
				p.expectIdent()
			}
			x = &ast.Member{At: ast.At{Span: p.span(start)}, X: x, Name: name}
		case token.LBracket:
			p.advance()
			key := p.parseExpr()
			p.expect(token.RBracket, diag.SynUnclosedBracket)
			x = &ast.Index{At: ast.At{Span: p.span(start)}, X: x, Key: key}
		case token.LParen:
			call := &ast.Call{Fn: x}
			call.Args, call.Omit = p.parseArgs()
			if p.at(token.LBrace) && p.peek(0).Is(token.Pipe, token.OrOr) {
				call.Block = p.parseLazyBlock()
			}
			call.Span = p.span(start)
			x = call
		case token.PlusPlus, token.MinusMinus:
			inc := p.advance().Kind == token.PlusPlus
			p.checkLValue(x)
			x = &ast.IncDec{At: ast.At{Span: p.span(start)}, Inc: inc, X: x}
		default:
			return x
		}
	}
}

// parseArgs reads `( args )`. A lone `...` means omitted arguments.
func (p *Parser) parseArgs() ([]ast.Arg, bool) {
	p.expect(token.LParen, diag.SynUnexpectedToken)
	if p.at(token.Ellipsis) {
		p.advance()
		p.expect(token.RParen, diag.SynUnclosedParen)
		return nil, true
	}
	var args []ast.Arg
	for !p.at(token.RParen, token.EOF) {
		if p.eat(token.Star) {
			if p.at(token.Comma, token.RParen) {
				args = append(args, ast.Arg{Expand: true})
			} else {
				args = append(args, ast.Arg{Value: p.parseAssign(), Expand: true})
			}
		} else {
			args = append(args, ast.Arg{Value: p.parseAssign()})
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedParen)
	return args, false
}

// parseLazyBlock reads `{ |a, b| stmts }` or `{ || stmts }`.
func (p *Parser) parseLazyBlock() *ast.Func {
	start := p.advance().Span
	fn := &ast.Func{Kind: ast.FuncBlock}
	if !p.eat(token.OrOr) {
		p.expect(token.Pipe, diag.SynUnexpectedToken)
		p.parseParams(fn, token.Pipe)
		p.expect(token.Pipe, diag.SynUnexpectedToken)
	}
	for !p.at(token.RBrace, token.EOF) {
		if st := p.parseStmt(); st != nil {
			fn.Body = append(fn.Body, st)
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace)
	fn.Span = p.span(start)
	return fn
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.tok
	at := ast.At{Span: tok.Span}
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		i, err := strconv.ParseInt(strings.ReplaceAll(tok.Text, "_", ""), 0, 64)
		if err != nil {
			p.errorf(diag.LexBadNumber, tok.Span, "integer literal out of range")
		}
		return &ast.Literal{At: at, Value: value.Int(i)}
	case token.RealLit:
		p.advance()
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 64)
		if err != nil {
			p.errorf(diag.LexBadNumber, tok.Span, "bad real literal")
		}
		return &ast.Literal{At: at, Value: value.Real(f)}
	case token.StringLit:
		p.advance()
		return &ast.Literal{At: at, Value: value.Str(tok.Text)}
	case token.OctetLit:
		p.advance()
		return &ast.Literal{At: at, Value: value.OctetString(tok.Text)}
	case token.KwVoid:
		p.advance()
		return &ast.Literal{At: at, Value: value.Void()}
	case token.KwNull:
		p.advance()
		return &ast.Literal{At: at, Value: value.Null()}
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.Literal{At: at, Value: value.Bool(tok.Kind == token.KwTrue)}
	case token.KwThis:
		p.advance()
		return &ast.This{At: at}
	case token.KwSuper:
		p.advance()
		return &ast.Super{At: at}
	case token.KwGlobal:
		p.advance()
		return &ast.Global{At: at}
	case token.Ident:
		p.advance()
		return &ast.Ident{At: at, Name: tok.Text}
	case token.LParen:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RParen, diag.SynUnclosedParen)
		return x
	case token.LBracket:
		return p.parseArrayLit()
	case token.DictOpen:
		return p.parseDictLit()
	case token.KwFunction:
		fn := p.parseFunc(ast.FuncPlain, false)
		return &ast.FuncLit{At: ast.At{Span: fn.Span}, Func: fn}
	case token.KwNew:
		return p.parseNew()
	}
	p.errorf(diag.SynExpectExpression, tok.Span, "expected expression, found %q", p.describe(tok))
	if !p.at(token.EOF, token.RBrace, token.Semicolon) {
		p.advance()
	}
	return &ast.Literal{At: at, Value: value.Void()}
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.advance().Span
	arr := &ast.ArrayLit{}
	for !p.at(token.RBracket, token.EOF) {
		arr.Elems = append(arr.Elems, p.parseAssign())
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBracket, diag.SynUnclosedBracket)
	arr.Span = p.span(start)
	return arr
}

func (p *Parser) parseDictLit() ast.Expr {
	start := p.advance().Span
	dict := &ast.DictLit{}
	for !p.at(token.RBracket, token.EOF) {
		key := p.parseAssign()
		p.expect(token.FatArrow, diag.SynUnexpectedToken)
		val := p.parseAssign()
		dict.Entries = append(dict.Entries, ast.DictEntry{Key: key, Value: val})
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBracket, diag.SynUnclosedBracket)
	dict.Span = p.span(start)
	return dict
}

// parseNew reads `new Class(args)`; the argument list is optional.
func (p *Parser) parseNew() ast.Expr {
	start := p.advance().Span
	var class ast.Expr = p.parsePrimary()
	for {
		if p.eat(token.Dot) {
			name, _, _ := p.expectIdent()
			class = &ast.Member{At: ast.At{Span: p.span(class.Pos())}, X: class, Name: name}
			continue
		}
		break
	}
	n := &ast.New{Class: class}
	if p.at(token.LParen) {
		n.Args, n.Omit = p.parseArgs()
	}
	n.Span = p.span(start)
	return n
}
