package token

var keywords = map[string]Kind{
	"var":      KwVar,
	"function": KwFunction,
	"class":    KwClass,
	"extends":  KwExtends,
	"property": KwProperty,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"do":       KwDo,
	"for":      KwFor,
	"switch":   KwSwitch,
	"case":     KwCase,
	"default":  KwDefault,
	"break":    KwBreak,
	"continue": KwContinue,
	"return":   KwReturn,
	"throw":    KwThrow,
	"try":      KwTry,
	"catch":    KwCatch,
	"new":      KwNew,
	"delete":   KwDelete,
	"this":     KwThis,
	"super":    KwSuper,
	"global":   KwGlobal,
	"void":     KwVoid,
	"null":     KwNull,
	"true":     KwTrue,
	"false":    KwFalse,
	"goto":     KwGoto,
}

// LookupKeyword returns the keyword kind of ident, if it is one.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
