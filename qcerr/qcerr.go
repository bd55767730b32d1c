// Package qcerr defines QC's error kinds (spec.md §7) and the non-local
// exit mechanism that unwinds a running script back to its top-level
// executor.
//
// The original interpreter used setjmp/longjmp. The teacher already
// expresses "unwind on fatal error" as panic/recover (see
// interpreter.Interpret's own deferred recover in informatter/nilan); QC
// generalizes that same shape instead of inventing a different
// error-propagation style: Raise panics with an *Error, and the top-level
// drivers (runFile, loadAndInit, evalLine), the loader (lexer.LoadSource)
// and prescan.Scan recover it with Recover and return it as an ordinary
// error.
package qcerr

import "fmt"

// Kind enumerates QC's fatal error kinds, grouped the way spec.md §7 groups
// them: lexical, syntactic, semantic, resource, and fatal-internal.
type Kind int

const (
	_ Kind = iota

	// Lexical
	UnbalComment
	UnterminatedString
	InvalidToken

	// Syntactic
	SyntaxErr
	UnbalParens
	NoExpression
	EqualsExpected
	SemiExpected
	UnbalBraces
	TypeExpected
	ParenExpected
	WhileExpected
	QuoteExpected
	ArgExpected
	CommaExpected
	SquBraceExpected
	IdentifierExpected
	ArraySizeNotLiteral
	ArrayInitializer

	// Semantic
	NotVariable
	FuncUndefined
	ParamErr
	RetNoCall
	NotTemp
	TypeMismatch
	TypeInvalid
	Uninit
	NamesMatch
	NoMain
	Deref
	DblPtr
	PtrRefErr
	InsaneShift
	ArrayBounds
	BoundErr

	// Resource
	TooManyLvars
	TooManyGvars
	TooManyArgs
	TooManyFiles
	TooManyStrings
	OversizeString
	ArrayTooBig
	NoMem
	FileNotPointer
	NoFile

	// Fatal internal
	Fatal
	UnkType
	NestFunc
)

var kindNames = map[Kind]string{
	UnbalComment:        "UNBAL_COMMENT",
	UnterminatedString:  "UNTERMINATED_STRING",
	InvalidToken:        "INVALID_TOKEN",
	SyntaxErr:           "SYNTAX",
	UnbalParens:         "UNBAL_PARENS",
	NoExpression:        "NO_EXP",
	EqualsExpected:      "EQUALS_EXPECTED",
	SemiExpected:        "SEMI_EXPECTED",
	UnbalBraces:         "UNBAL_BRACES",
	TypeExpected:        "TYPE_EXPECTED",
	ParenExpected:       "PAREN_EXPECTED",
	WhileExpected:       "WHILE_EXPECTED",
	QuoteExpected:       "QUOTE_EXPECTED",
	ArgExpected:         "ARG_EXPECTED",
	CommaExpected:       "COMMA_EXPECTED",
	SquBraceExpected:    "SQUBRACE_EXPECTED",
	IdentifierExpected:  "IDENTIFIER_EXPECTED",
	ArraySizeNotLiteral: "ARRAYSIZE_NOT_LIT",
	ArrayInitializer:    "ARRAY_INITIALIZER",
	NotVariable:         "NOT_VAR",
	FuncUndefined:       "FUNC_UNDEF",
	ParamErr:            "PARAM_ERR",
	RetNoCall:           "RET_NOCALL",
	NotTemp:             "NOT_TEMP",
	TypeMismatch:        "TYPE_MISMATCH",
	TypeInvalid:         "TYPE_INVAL",
	Uninit:              "UNINIT",
	NamesMatch:          "NAMES_MATCH",
	NoMain:              "NOMAIN",
	Deref:               "DEREF",
	DblPtr:              "DBL_PTR",
	PtrRefErr:           "PTR_REF_ERR",
	InsaneShift:         "INSANE_SHIFT",
	ArrayBounds:         "ARRAY_BOUNDS",
	BoundErr:            "BOUND_ERR",
	TooManyLvars:        "TOO_MANY_LVARS",
	TooManyGvars:        "TOO_MANY_GVARS",
	TooManyArgs:         "TOO_MANY_ARGS",
	TooManyFiles:        "TOO_MANY_FILES",
	TooManyStrings:      "TOO_MANY_STRINGS",
	OversizeString:      "OVERSIZE_STRING",
	ArrayTooBig:         "ARRAY_TOO_BIG",
	NoMem:               "NOMEM",
	FileNotPointer:      "FILE_NOT_P",
	NoFile:              "NOFILE",
	Fatal:               "FATAL",
	UnkType:             "UNK_TYPE",
	NestFunc:            "NEST_FUNC",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN_ERROR"
}

// Error is the value panicked by Raise and recovered by Recover. It carries
// enough context to reproduce the original qcsyntax() diagnostic: the
// error kind, the 1-based line it occurred on, and up to 30 bytes of
// surrounding source.
type Error struct {
	Kind    Kind
	Line    int
	Context string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("💥 qc: %s at line %d: %s\n\t%s", e.Kind, e.Line, e.Detail, e.Context)
	}
	return fmt.Sprintf("💥 qc: %s at line %d\n\t%s", e.Kind, e.Line, e.Context)
}

// contextWidth mirrors the original's "up to 30 bytes of surrounding
// source" diagnostic window.
const contextWidth = 30

// Context slices up to contextWidth bytes around pos out of buf, for
// inclusion in a diagnostic.
func Context(buf []byte, pos int) string {
	start := pos - contextWidth/2
	if start < 0 {
		start = 0
	}
	end := pos + contextWidth/2
	if end > len(buf) {
		end = len(buf)
	}
	if start > end {
		start = end
	}
	return string(buf[start:end])
}

// LineOf scans buf from the start up to pos, counting newlines, to compute
// a 1-based line number the way the original's qcsyntax() does.
func LineOf(buf []byte, pos int) int {
	if pos > len(buf) {
		pos = len(buf)
	}
	line := 1
	for _, b := range buf[:pos] {
		if b == '\n' {
			line++
		}
	}
	return line
}

// Raise performs QC's fatal non-local exit: it panics with an *Error built
// from the given kind, source buffer, and cursor position. Every error in
// QC is fatal (spec.md §7): there is no local recovery inside a running
// script, only the catch points at the loader, prescan, and the top-level
// drivers.
func Raise(kind Kind, buf []byte, pos int, detail string) {
	panic(&Error{
		Kind:    kind,
		Line:    LineOf(buf, pos),
		Context: Context(buf, pos),
		Detail:  detail,
	})
}

// Recover turns a recovered panic value into an error, re-panicking
// anything that isn't a QC *Error (a genuine programming bug should not be
// silently swallowed as if it were a script error).
func Recover(r any) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(*Error); ok {
		return err
	}
	panic(r)
}
