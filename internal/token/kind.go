package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	IntLit
	RealLit
	StringLit
	// OctetLit is a `<% 01 ff %>` blob; Text holds the raw bytes.
	OctetLit

	KwVar
	KwFunction
	KwClass
	KwExtends
	KwProperty
	KwIf
	KwElse
	KwWhile
	KwDo
	KwFor
	KwSwitch
	KwCase
	KwDefault
	KwBreak
	KwContinue
	KwReturn
	KwThrow
	KwTry
	KwCatch
	KwNew
	KwDelete
	KwThis
	KwSuper
	KwGlobal
	KwVoid
	KwNull
	KwTrue
	KwFalse
	KwGoto

	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	// DictOpen is `%[`.
	DictOpen
	Comma
	Semicolon
	Colon
	Question
	Dot
	Ellipsis
	FatArrow

	Plus
	Minus
	Star
	Slash
	Backslash
	Percent
	PlusPlus
	MinusMinus
	Bang
	Tilde
	Amp
	Pipe
	Caret
	Shl
	Shr
	UShr
	AndAnd
	OrOr
	Lt
	Gt
	LtEq
	GtEq
	EqEq
	BangEq
	EqEqEq
	BangEqEq

	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	BackslashAssign
	PercentAssign
	AmpAssign
	PipeAssign
	CaretAssign
	ShlAssign
	ShrAssign
	UShrAssign
)

var kindNames = map[Kind]string{
	Invalid: "invalid", EOF: "end of file", Ident: "identifier", IntLit: "integer",
	RealLit: "real", StringLit: "string", OctetLit: "octet",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	DictOpen: "%[", Comma: ",", Semicolon: ";", Colon: ":", Question: "?", Dot: ".",
	Ellipsis: "...", FatArrow: "=>",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Backslash: "\\", Percent: "%",
	PlusPlus: "++", MinusMinus: "--", Bang: "!", Tilde: "~", Amp: "&", Pipe: "|", Caret: "^",
	Shl: "<<", Shr: ">>", UShr: ">>>", AndAnd: "&&", OrOr: "||",
	Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=", EqEq: "==", BangEq: "!=", EqEqEq: "===", BangEqEq: "!==",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=", SlashAssign: "/=",
	BackslashAssign: "\\=", PercentAssign: "%=", AmpAssign: "&=", PipeAssign: "|=", CaretAssign: "^=",
	ShlAssign: "<<=", ShrAssign: ">>=", UShrAssign: ">>>=",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	for word, kw := range keywords {
		if kw == k {
			return word
		}
	}
	return "?"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwVar && k <= KwGoto
}
