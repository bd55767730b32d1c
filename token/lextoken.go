package token

// Token is one lexical unit: a Code plus whatever payload that code carries
// (spec.md §3 "Saved program state" / §4.1). Pos is the byte offset of the
// token's first byte in the owning Namespace's program buffer; End is the
// offset of the first byte after it. Putback restores the cursor to Pos, so
// Lex() can re-scan the identical bytes — there is no cached token list.
type Token struct {
	Code Code

	Pos int
	End int

	// Name holds IDENTIFIER text and keyword spelling.
	Name string

	// IVal/FVal/IsFloat hold a NUMBER literal's parsed value (§4.4 atom
	// level: default int, 'U' suffix unsigned, 'F' suffix or a '.'/'E'
	// makes it a double).
	IVal    int64
	FVal    float64
	IsFloat bool
	Unsign  bool

	// StrIdx indexes the owning Namespace's Strings table for a STRING
	// literal (§4.2: the lexer returns the decoded string, never a raw
	// buffer offset).
	StrIdx int
}

// String renders the token for diagnostics.
func (t Token) String() string {
	switch t.Code.Tok() {
	case IDENTIFIER:
		return t.Name
	case NUMBER:
		if t.IsFloat {
			return "<number>"
		}
		return "<number>"
	case STRING:
		return "<string>"
	default:
		return t.Code.String()
	}
}
