package lexer

import (
	"strings"

	"lumen/internal/diag"
	"lumen/internal/token"
)

func (lx *Lexer) scanString(quote byte) token.Token {
	start := lx.cursor.Off
	lx.cursor.Bump()
	var sb strings.Builder
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.StringLit, Span: sp, Text: sb.String()}
		}
		ch := lx.cursor.Bump()
		if ch == quote {
			break
		}
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}
		escStart := lx.cursor.Off - 1
		switch esc := lx.cursor.Bump(); esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '"', '\'':
			sb.WriteByte(esc)
		default:
			lx.report(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), "unknown escape sequence")
			sb.WriteByte(esc)
		}
	}
	return token.Token{Kind: token.StringLit, Span: lx.cursor.SpanFrom(start), Text: sb.String()}
}

// scanOctet reads `<% 0a ff %>` into raw bytes.
func (lx *Lexer) scanOctet() token.Token {
	start := lx.cursor.Off
	lx.cursor.Off += 2
	var buf []byte
	for {
		lx.skipTrivia()
		if lx.cursor.EOF() {
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexBadOctet, sp, "unterminated octet literal")
			return token.Token{Kind: token.OctetLit, Span: sp, Text: string(buf)}
		}
		if lx.cursor.Peek() == '%' && lx.cursor.PeekAt(1) == '>' {
			lx.cursor.Off += 2
			break
		}
		hi, lo := lx.cursor.Peek(), lx.cursor.PeekAt(1)
		if !isHex(hi) || !isHex(lo) {
			errStart := lx.cursor.Off
			lx.cursor.Bump()
			lx.report(diag.LexBadOctet, lx.cursor.SpanFrom(errStart), "octet literal expects hex byte pairs")
			continue
		}
		lx.cursor.Off += 2
		buf = append(buf, hexVal(hi)<<4|hexVal(lo))
		lx.cursor.Eat(',')
	}
	return token.Token{Kind: token.OctetLit, Span: lx.cursor.SpanFrom(start), Text: string(buf)}
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}
