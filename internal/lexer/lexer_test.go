package lexer_test

import (
	"testing"

	"lumen/internal/diag"
	"lumen/internal/lexer"
	"lumen/internal/source"
	"lumen/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("lex.lm", []byte(src))
	bag := diag.NewBag(16)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	var toks []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return toks, bag
		}
		toks = append(toks, tok)
	}
}

func TestLexKinds(t *testing.T) {
	toks, bag := lexAll(t, `var x = 0x1f + 2.5e1; // comment
x >>>= 3; f(...); %[ "a" => 'b\n' ]; /* block */ <% 01 ff %>`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	want := []token.Kind{
		token.KwVar, token.Ident, token.Assign, token.IntLit, token.Plus, token.RealLit, token.Semicolon,
		token.Ident, token.UShrAssign, token.IntLit, token.Semicolon,
		token.Ident, token.LParen, token.Ellipsis, token.RParen, token.Semicolon,
		token.DictOpen, token.StringLit, token.FatArrow, token.StringLit, token.RBracket, token.Semicolon,
		token.OctetLit,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
	if toks[19].Text != "b\n" {
		t.Errorf("escape decoding: %q", toks[19].Text)
	}
	if toks[22].Text != "\x01\xff" {
		t.Errorf("octet bytes: %q", toks[22].Text)
	}
}

func TestLexErrors(t *testing.T) {
	_, bag := lexAll(t, "var s = \"open\n@")
	if bag.Len() != 2 {
		t.Fatalf("want 2 diagnostics, got %+v", bag.Items())
	}
	if bag.Items()[0].Code != diag.LexUnterminatedString || bag.Items()[1].Code != diag.LexUnknownChar {
		t.Errorf("codes = %s, %s", bag.Items()[0].Code.ID(), bag.Items()[1].Code.ID())
	}
}
