package lexer

import (
	"strconv"

	"qc/qcerr"
	"qc/symtab"
	"qc/token"
)

// Lexer is a cursor into a Namespace's already-loaded program buffer. It
// carries no lookahead buffer and no token list: Lex reads one token
// starting at the current position and advances past it; Putback simply
// rewinds the cursor to where that token started, so the next Lex call
// re-scans the identical bytes (spec.md §4.1, §9).
type Lexer struct {
	ns  *symtab.Namespace
	pos int
}

// New creates a Lexer positioned at the start of ns's program buffer.
func New(ns *symtab.Namespace) *Lexer { return &Lexer{ns: ns} }

// Namespace returns the Namespace this Lexer is scanning.
func (l *Lexer) Namespace() *symtab.Namespace { return l.ns }

// Pos returns the current cursor position.
func (l *Lexer) Pos() int { return l.pos }

// Seek moves the cursor to an arbitrary buffer offset, used by the block
// interpreter to jump to a function body, replay a loop's condition, or
// skip over a not-taken branch (spec.md §4.6 "find end of block").
func (l *Lexer) Seek(pos int) { l.pos = pos }

// Putback restores the cursor to tok's start, so the next Lex call
// reproduces tok exactly (spec.md §8: "after any lex(); putback() pair, a
// second lex() returns the identical token").
func (l *Lexer) Putback(tok token.Token) { l.pos = tok.Pos }

// SwitchNamespace retargets the cursor at ns starting from pos (a user
// function call entering its owning namespace, §4.5), returning the
// previous namespace/position so the caller can restore them verbatim on
// return — an explicit snapshot pair rather than a hidden mutable global
// (§9 "Program state snapshots").
func (l *Lexer) SwitchNamespace(ns *symtab.Namespace, pos int) (prevNs *symtab.Namespace, prevPos int) {
	prevNs, prevPos = l.ns, l.pos
	l.ns, l.pos = ns, pos
	return prevNs, prevPos
}

// Restore puts the cursor back exactly where SwitchNamespace's caller
// snapshotted it from.
func (l *Lexer) Restore(ns *symtab.Namespace, pos int) {
	l.ns, l.pos = ns, pos
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isLetter(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool { return isLetter(b) || isDigit(b) }

func (l *Lexer) buf() []byte { return l.ns.Buffer }

// Lex scans and returns the next token, advancing the cursor past it.
func (l *Lexer) Lex() token.Token {
	buf := l.buf()
	l.skipSpace(buf)
	start := l.pos

	if start >= len(buf) || buf[start] == 0 {
		l.pos = start
		return token.Token{Code: token.FINISHED, Pos: start, End: start}
	}

	b := buf[start]
	switch {
	case b == '"':
		return l.lexString(buf, start)
	case isDigit(b):
		return l.lexNumber(buf, start)
	case isLetter(b):
		return l.lexIdent(buf, start)
	case token.IsDelim(b):
		return l.lexDelim(buf, start)
	default:
		qcerr.Raise(qcerr.InvalidToken, buf, start, string(rune(b)))
	}
	panic("unreachable")
}

func (l *Lexer) skipSpace(buf []byte) {
	for l.pos < len(buf) {
		switch buf[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

// lexString resolves a '"' byte to its already-interned literal (the
// loader did the escape decoding; the lexer just looks it up by start
// offset and skips to its recorded end, per §4.1/§4.2).
func (l *Lexer) lexString(buf []byte, start int) token.Token {
	idx, ok := l.ns.StringAt(start)
	if !ok {
		qcerr.Raise(qcerr.UnterminatedString, buf, start, "")
	}
	entry := l.ns.Strings[idx]
	l.pos = entry.End
	return token.Token{
		Code:   token.CHARPTR,
		Pos:    start,
		End:    entry.End,
		StrIdx: idx,
	}
}

// lexNumber reads a NUMBER literal (§4.4 atom level): default int, 'U'
// suffix marks unsigned, a '.' / 'E' / trailing 'F' marks it a double.
func (l *Lexer) lexNumber(buf []byte, start int) token.Token {
	i := start
	hasDot := false
	hasExp := false
	for i < len(buf) {
		c := buf[i]
		switch {
		case isDigit(c):
			i++
		case c == '.' && !hasDot && !hasExp:
			hasDot = true
			i++
		case (c == 'e' || c == 'E') && !hasExp:
			hasExp = true
			i++
			if i < len(buf) && (buf[i] == '+' || buf[i] == '-') {
				i++
			}
		default:
			goto suffix
		}
	}
suffix:
	text := string(buf[start:i])
	isFloat := hasDot || hasExp
	unsigned := false

	for i < len(buf) {
		switch buf[i] {
		case 'u', 'U':
			unsigned = true
			i++
		case 'f', 'F':
			isFloat = true
			i++
		case 'l', 'L':
			i++
		default:
			goto done
		}
	}
done:
	l.pos = i
	tok := token.Token{Code: token.NUMBER, Pos: start, End: i, IsFloat: isFloat, Unsign: unsigned}
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			qcerr.Raise(qcerr.InvalidToken, buf, start, text)
		}
		tok.FVal = f
	} else {
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			// Out-of-int64-range or malformed: reparse as unsigned.
			uv, uerr := strconv.ParseUint(text, 0, 64)
			if uerr != nil {
				qcerr.Raise(qcerr.InvalidToken, buf, start, text)
			}
			v = int64(uv)
		}
		tok.IVal = v
	}
	return tok
}

// lexIdent reads an identifier or keyword.
func (l *Lexer) lexIdent(buf []byte, start int) token.Token {
	i := start
	for i < len(buf) && isIdentByte(buf[i]) {
		i++
	}
	l.pos = i
	text := string(buf[start:i])
	if code, ok := token.Keywords[text]; ok {
		return token.Token{Code: code, Pos: start, End: i, Name: text}
	}
	return token.Token{Code: token.IDENTIFIER, Pos: start, End: i, Name: text}
}

// lexDelim reads a one, two, or three-byte operator/delimiter.
func (l *Lexer) lexDelim(buf []byte, start int) token.Token {
	if start+2 < len(buf) {
		if code, ok := token.ThreeCharOp(buf[start], buf[start+1], buf[start+2]); ok {
			l.pos = start + 3
			return token.Token{Code: code, Pos: start, End: l.pos}
		}
	}
	if start+1 < len(buf) {
		if code, ok := token.TwoCharOp(buf[start], buf[start+1]); ok {
			l.pos = start + 2
			return token.Token{Code: code, Pos: start, End: l.pos}
		}
	}
	code, ok := token.DelimToken(buf[start])
	if !ok {
		qcerr.Raise(qcerr.InvalidToken, buf, start, string(rune(buf[start])))
	}
	l.pos = start + 1
	return token.Token{Code: code, Pos: start, End: l.pos}
}
