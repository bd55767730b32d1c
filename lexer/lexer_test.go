package lexer

import (
	"testing"

	"qc/token"
)

func load(t *testing.T, src string) *Lexer {
	t.Helper()
	ns, err := LoadSource("test.qc", []byte(src))
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	return New(ns)
}

func TestLexOperators(t *testing.T) {
	lx := load(t, "==/=*+>-<!=<=>=!~<<=>>=&&||++--")
	want := []token.Code{
		token.EQ, token.DIVEQ, token.MUL, token.PLUS, token.GT,
		token.MINUS, token.LT, token.NE, token.LE, token.GE, token.LNOT,
		token.ANOT, token.LSLEQ, token.LSREQ, token.LAND, token.LOR,
		token.PLUSPLUS, token.MINUSMINUS, token.FINISHED,
	}
	for i, w := range want {
		tok := lx.Lex()
		if tok.Code != w {
			t.Fatalf("token %d: got %v, want %v", i, tok.Code, w)
		}
	}
}

func TestLexDelimiters(t *testing.T) {
	lx := load(t, "(){}[];,")
	want := []token.Code{
		token.OPENPAREN, token.CLOSEPAREN, token.OPENBR, token.CLOSEBR,
		token.OPENSQU, token.CLOSESQU, token.SEMI, token.COMMA, token.FINISHED,
	}
	for i, w := range want {
		if got := lx.Lex().Code; got != w {
			t.Fatalf("token %d: got %v, want %v", i, got, w)
		}
	}
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	lx := load(t, "if while foo42 int unsigned return _bar")
	wantCode := []token.Code{
		token.IF, token.WHILE, token.IDENTIFIER, token.INT, token.UNSIGNED,
		token.RETURN, token.IDENTIFIER, token.FINISHED,
	}
	for i, w := range wantCode {
		if got := lx.Lex().Code.Tok(); got != w.Tok() {
			t.Fatalf("token %d: got %v, want %v", i, got, w)
		}
	}
}

func TestLexNumberSuffixes(t *testing.T) {
	lx := load(t, "42 3.14 5U 2.0F 10")
	cases := []struct {
		isFloat bool
		unsign  bool
	}{
		{false, false}, {true, false}, {false, true}, {true, false}, {false, false},
	}
	for i, c := range cases {
		tok := lx.Lex()
		if tok.Code.Tok() != token.NUMBER {
			t.Fatalf("token %d: not a NUMBER: %v", i, tok.Code)
		}
		if tok.IsFloat != c.isFloat || tok.Unsign != c.unsign {
			t.Fatalf("token %d: got isFloat=%v unsign=%v, want %v/%v", i, tok.IsFloat, tok.Unsign, c.isFloat, c.unsign)
		}
	}
}

func TestLexStringLiteralDecodesEscapes(t *testing.T) {
	lx := load(t, `"hi\n"`)
	tok := lx.Lex()
	if tok.Code != token.CHARPTR {
		t.Fatalf("got code %v, want CHARPTR", tok.Code)
	}
	if got := lx.ns.Strings[tok.StrIdx].Decoded; got != "hi\n" {
		t.Fatalf("decoded = %q, want %q", got, "hi\n")
	}
	if lx.Lex().Code != token.FINISHED {
		t.Fatalf("expected FINISHED after the one literal")
	}
}

func TestLexPutbackReproducesToken(t *testing.T) {
	lx := load(t, "x = y + 1")
	first := lx.Lex()
	lx.Putback(first)
	second := lx.Lex()
	if first != second {
		t.Fatalf("lex/putback/lex mismatch: %+v vs %+v", first, second)
	}
}

func TestLoadStripsCommentsAndCollapsesSpace(t *testing.T) {
	ns, err := LoadSource("t.qc", []byte("int  /* comment\nspanning */ x\t=\t1;"))
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	lx := New(ns)
	var toks []token.Code
	for {
		tok := lx.Lex()
		toks = append(toks, tok.Code.Tok())
		if tok.Code == token.FINISHED {
			break
		}
	}
	want := []token.Code{token.INT, token.IDENTIFIER, token.ASSIGN, token.NUMBER, token.SEMI, token.FINISHED}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(toks), toks, len(want), want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, toks[i], want[i])
		}
	}
}

func TestLoadUnbalancedCommentErrors(t *testing.T) {
	_, err := LoadSource("t.qc", []byte("int x; /* never closed"))
	if err == nil {
		t.Fatalf("expected an error for an unterminated comment")
	}
}

func TestLoadUnterminatedStringErrors(t *testing.T) {
	_, err := LoadSource("t.qc", []byte(`char *s; s = "oops`))
	if err == nil {
		t.Fatalf("expected an error for an unterminated string")
	}
}

// TestLoadRejectsEmbeddedNULEscape confirms a \0NN octal escape that
// decodes to an actual NUL byte is rejected (§4.2 "NUL byte itself is
// rejected"), since QC's strings are NUL-terminated and a real NUL inside
// the decoded content would silently truncate it.
func TestLoadRejectsEmbeddedNULEscape(t *testing.T) {
	_, err := LoadSource("t.qc", []byte(`char *s; s = "a\000b";`))
	if err == nil {
		t.Fatalf("expected an error for a \\0 escape decoding to NUL")
	}
}

func TestLoadAcceptsNonZeroOctalEscape(t *testing.T) {
	ns, err := LoadSource("t.qc", []byte(`char *s; s = "\041";`))
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if ns.Strings[0].Decoded != "!" {
		t.Fatalf("decoded = %q, want %q (octal 041 = '!')", ns.Strings[0].Decoded, "!")
	}
}
