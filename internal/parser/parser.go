// Package parser builds an ast.Script from tokens with a recursive descent
// parser. Syntax errors are reported to a diag.Reporter; the parser recovers
// at statement boundaries so one run reports as many problems as it can.
package parser

import (
	"fmt"

	"lumen/internal/ast"
	"lumen/internal/diag"
	"lumen/internal/lexer"
	"lumen/internal/source"
	"lumen/internal/token"
)

// Options configure a parse.
type Options struct {
	Reporter diag.Reporter
	// MaxErrors stops reporting after this many syntax errors (0 = unlimited).
	MaxErrors int
}

type Parser struct {
	lx     *lexer.Lexer
	file   *source.File
	tok    token.Token
	prev   token.Token
	opts   Options
	errors int
}

// ParseFile parses a whole file into a Script named after the file.
func ParseFile(file *source.File, opts Options) (*ast.Script, int) {
	p := &Parser{
		lx:   lexer.New(file, lexer.Options{Reporter: opts.Reporter}),
		file: file,
		opts: opts,
	}
	p.advance()
	script := &ast.Script{Name: file.Path}
	start := p.tok.Span
	for !p.at(token.EOF) {
		if st := p.parseStmt(); st != nil {
			script.Body = append(script.Body, st)
		}
	}
	script.Span = start.Cover(p.tok.Span)
	return script, p.errors
}

func (p *Parser) advance() token.Token {
	p.prev = p.tok
	p.tok = p.lx.Next()
	for p.tok.Kind == token.Invalid {
		// the lexer already reported it
		p.errors++
		p.tok = p.lx.Next()
	}
	return p.prev
}

func (p *Parser) at(kinds ...token.Kind) bool {
	return p.tok.Is(kinds...)
}

func (p *Parser) peek(n int) token.Token {
	return p.lx.Peek(n)
}

func (p *Parser) eat(kind token.Kind) bool {
	if p.tok.Kind == kind {
		p.advance()
		return true
	}
	return false
}

// expect consumes kind or reports code; it never consumes a mismatching token.
func (p *Parser) expect(kind token.Kind, code diag.Code) bool {
	if p.eat(kind) {
		return true
	}
	p.errorf(code, p.tok.Span, "expected %q, found %q", kind.String(), p.describe(p.tok))
	return false
}

func (p *Parser) expectIdent() (string, source.Span, bool) {
	if p.tok.Kind != token.Ident {
		p.errorf(diag.SynExpectIdentifier, p.tok.Span, "expected identifier, found %q", p.describe(p.tok))
		return "", p.tok.Span, false
	}
	tok := p.advance()
	return tok.Text, tok.Span, true
}

func (p *Parser) describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of file"
	}
	if tok.Text != "" {
		return tok.Text
	}
	return tok.Kind.String()
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	p.errors++
	if p.opts.MaxErrors > 0 && p.errors > p.opts.MaxErrors {
		return
	}
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
	}
}

// semicolon accepts an explicit `;`, or nothing before `}` and EOF.
func (p *Parser) semicolon() {
	if p.eat(token.Semicolon) || p.at(token.RBrace, token.EOF) {
		return
	}
	p.errorf(diag.SynExpectSemicolon, p.prev.Span, "expected ';' after %q", p.describe(p.prev))
}

// sync skips to a likely statement boundary after an error.
func (p *Parser) sync() {
	for !p.at(token.EOF) {
		if p.eat(token.Semicolon) {
			return
		}
		switch p.tok.Kind {
		case token.RBrace, token.KwVar, token.KwFunction, token.KwClass, token.KwIf, token.KwWhile,
			token.KwFor, token.KwDo, token.KwReturn, token.KwTry, token.KwSwitch:
			return
		}
		p.advance()
	}
}

func (p *Parser) span(start source.Span) source.Span {
	return start.Cover(p.prev.Span)
}
