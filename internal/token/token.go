// Package token defines the lexical tokens of the scripting language.
package token

import "lumen/internal/source"

// Token is a lexical unit. For string and octet literals Text holds the decoded
// content; for every other kind it is the raw lexeme.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// Is reports whether the token is one of kinds.
func (t Token) Is(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}
