// Package lexer turns a Namespace's program buffer into a stream of tokens.
// It has two halves: the program loader (this file), which runs once per
// loaded file to strip comments, collapse whitespace, and intern string
// literals (spec.md §4.2); and the Lexer cursor (lexer.go), which re-scans
// the already-loaded buffer one token at a time with a one-token putback —
// there is no token cache, no AST: every revisit re-lexes from the saved
// cursor position (spec.md §9 "Non-local exit" / §2 control-flow note).
//
// Grounded on the teacher's lexer.go byte/rune classification helpers
// (isLetter, isNumber, comment handling) and on original_source/qc.h's
// escape table, reworked around a buffer-transform pass instead of the
// teacher's upfront full-program tokenization.
package lexer

import (
	"os"

	"qc/qcerr"
	"qc/symtab"
)

// LoadProgram reads path and returns a freshly-populated Namespace.
func LoadProgram(path string) (ns *symtab.Namespace, err error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadSource(path, src)
}

// LoadSource performs the §4.2 buffer transform over src and returns the
// resulting Namespace. Any qcerr.Error raised mid-transform (unbalanced
// comment, unterminated string, oversize/too-many string literals) is
// returned as a normal error rather than propagated as a panic, since
// loading happens before the interpreter's top-level non-local-exit
// installation exists.
func LoadSource(path string, src []byte) (ns *symtab.Namespace, err error) {
	defer func() {
		if e := qcerr.Recover(recover()); e != nil {
			err = e
		}
	}()
	ns = symtab.NewNamespace(path)
	ns.Buffer = transform(ns, src)
	return ns, nil
}

// transform strips /* ... */ comments, collapses runs of horizontal
// whitespace to one space (newlines pass through untouched so line numbers
// stay accurate), and interns string literals, copying everything else
// through verbatim. The result is NUL-terminated, the sentinel the lexer's
// Lex() checks for FINISHED.
func transform(ns *symtab.Namespace, src []byte) []byte {
	out := make([]byte, 0, len(src)+1)
	i := 0
	n := len(src)

	for i < n {
		switch {
		case src[i] == '/' && i+1 < n && src[i+1] == '*':
			start := i
			i += 2
			closed := false
			for i < n {
				if src[i] == '*' && i+1 < n && src[i+1] == '/' {
					i += 2
					closed = true
					break
				}
				if src[i] == '\n' {
					out = append(out, '\n')
				}
				i++
			}
			if !closed {
				qcerr.Raise(qcerr.UnbalComment, src, start, "")
			}

		case src[i] == '"':
			lit, decoded, next := scanString(src, i)
			startOut := len(out)
			out = append(out, lit...)
			endOut := len(out)
			if _, ok := ns.InternString(decoded, startOut, endOut); !ok {
				kind := qcerr.TooManyStrings
				if len(decoded) > symtab.MaxStringLen {
					kind = qcerr.OversizeString
				}
				qcerr.Raise(kind, src, i, decoded)
			}
			i = next

		case src[i] == ' ' || src[i] == '\t':
			j := i
			for j < n && (src[j] == ' ' || src[j] == '\t') {
				j++
			}
			out = append(out, ' ')
			i = j

		default:
			out = append(out, src[i])
			i++
		}
	}

	return append(out, 0)
}

// scanString reads one string literal starting at the opening quote src[i]
// and returns the literal's raw bytes (quotes included, unmodified), its
// decoded form (escapes resolved per §4.2: \n \t \\ \" \r \0NN), and the
// index of the first byte after the closing quote.
func scanString(src []byte, i int) (raw []byte, decoded string, next int) {
	start := i
	n := len(src)
	var dec []byte
	i++ // skip opening quote
	for i < n {
		switch src[i] {
		case '"':
			i++
			return src[start:i], string(dec), i
		case '\\':
			if i+1 >= n {
				qcerr.Raise(qcerr.UnterminatedString, src, start, "")
			}
			b, consumed := decodeEscape(src, i+1)
			if b == 0 {
				// \0NN decoding to an actual NUL byte is rejected (§4.2):
				// QC strings are NUL-terminated, so a NUL inside the
				// decoded content would truncate the string silently.
				qcerr.Raise(qcerr.InvalidToken, src, i, "NUL byte in string literal")
			}
			dec = append(dec, b)
			i += 1 + consumed
		case '\n':
			qcerr.Raise(qcerr.UnterminatedString, src, start, "")
		default:
			dec = append(dec, src[i])
			i++
		}
	}
	qcerr.Raise(qcerr.UnterminatedString, src, start, "")
	panic("unreachable")
}

// decodeEscape decodes the escape sequence beginning right after a
// backslash at src[i], returning the single decoded byte and how many
// source bytes (beyond the backslash itself) it consumed.
func decodeEscape(src []byte, i int) (byte, int) {
	switch src[i] {
	case 'n':
		return '\n', 1
	case 't':
		return '\t', 1
	case '\\':
		return '\\', 1
	case '"':
		return '"', 1
	case 'r':
		return '\r', 1
	case '0':
		val := 0
		consumed := 1
		for consumed < 3 && i+consumed < len(src) && src[i+consumed] >= '0' && src[i+consumed] <= '7' {
			val = val*8 + int(src[i+consumed]-'0')
			consumed++
		}
		return byte(val), consumed
	default:
		return src[i], 1
	}
}
