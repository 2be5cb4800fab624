package lexer

import (
	"lumen/internal/diag"
	"lumen/internal/token"
)

// operators is ordered longest first so that maximal munch falls out of a linear scan.
var operators = []struct {
	text string
	kind token.Kind
}{
	{">>>=", token.UShrAssign},
	{"===", token.EqEqEq}, {"!==", token.BangEqEq}, {">>>", token.UShr},
	{"<<=", token.ShlAssign}, {">>=", token.ShrAssign}, {"...", token.Ellipsis},
	{"%[", token.DictOpen}, {"=>", token.FatArrow},
	{"++", token.PlusPlus}, {"--", token.MinusMinus}, {"&&", token.AndAnd}, {"||", token.OrOr},
	{"<<", token.Shl}, {">>", token.Shr}, {"<=", token.LtEq}, {">=", token.GtEq},
	{"==", token.EqEq}, {"!=", token.BangEq},
	{"+=", token.PlusAssign}, {"-=", token.MinusAssign}, {"*=", token.StarAssign}, {"/=", token.SlashAssign},
	{"\\=", token.BackslashAssign}, {"%=", token.PercentAssign}, {"&=", token.AmpAssign},
	{"|=", token.PipeAssign}, {"^=", token.CaretAssign},
	{"(", token.LParen}, {")", token.RParen}, {"{", token.LBrace}, {"}", token.RBrace},
	{"[", token.LBracket}, {"]", token.RBracket}, {",", token.Comma}, {";", token.Semicolon},
	{":", token.Colon}, {"?", token.Question}, {".", token.Dot},
	{"+", token.Plus}, {"-", token.Minus}, {"*", token.Star}, {"/", token.Slash}, {"\\", token.Backslash},
	{"%", token.Percent}, {"!", token.Bang}, {"~", token.Tilde}, {"&", token.Amp}, {"|", token.Pipe},
	{"^", token.Caret}, {"<", token.Lt}, {">", token.Gt}, {"=", token.Assign},
}

func (lx *Lexer) scanOperator() token.Token {
	start := lx.cursor.Off
	rest := lx.file.Content[start:lx.cursor.Limit]
	for _, op := range operators {
		if len(rest) >= len(op.text) && string(rest[:len(op.text)]) == op.text {
			lx.cursor.Off += uint32(len(op.text))
			return token.Token{Kind: op.kind, Span: lx.cursor.SpanFrom(start), Text: op.text}
		}
	}
	lx.cursor.Bump()
	sp := lx.cursor.SpanFrom(start)
	lx.report(diag.LexUnknownChar, sp, "unknown character")
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(rest[:1])}
}
