package lexer

import (
	"lumen/internal/diag"
	"lumen/internal/token"
)

func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Off
	kind := token.IntLit
	if lx.cursor.Peek() == '0' && (lx.cursor.PeekAt(1) == 'x' || lx.cursor.PeekAt(1) == 'X') {
		lx.cursor.Off += 2
		digits := 0
		for isHex(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
			digits++
		}
		if digits == 0 {
			lx.report(diag.LexBadNumber, lx.cursor.SpanFrom(start), "hex literal without digits")
		}
		return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(start), Text: string(lx.file.Content[start:lx.cursor.Off])}
	}
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		kind = token.RealLit
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
		}
	}
	if ch := lx.cursor.Peek(); ch == 'e' || ch == 'E' {
		next := lx.cursor.PeekAt(1)
		if isDec(next) || ((next == '+' || next == '-') && isDec(lx.cursor.PeekAt(2))) {
			kind = token.RealLit
			lx.cursor.Off += 2
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
	}
	if isIdentStartByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		lx.report(diag.LexBadNumber, lx.cursor.SpanFrom(start), "malformed number literal")
		return token.Token{Kind: token.Invalid, Span: lx.cursor.SpanFrom(start), Text: string(lx.file.Content[start:lx.cursor.Off])}
	}
	return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(start), Text: string(lx.file.Content[start:lx.cursor.Off])}
}
