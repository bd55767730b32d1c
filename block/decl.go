package block

import (
	"qc/atom"
	"qc/eval"
	"qc/qcerr"
	"qc/symtab"
	"qc/token"
)

// handleDeclaration parses a local variable declaration starting with
// firstTok (the type keyword already consumed by the statement dispatcher):
// a comma-separated list of [*]name[[size]][=initializer], terminated by
// ';'. Each scalar/element becomes one Variable pushed onto the local
// stack (spec.md §3 "local array expands inline as ASize consecutive
// slots"); array elements are never auto-initialized, matching "reading an
// uninitialized *array* element never raises UNINIT".
func handleDeclaration(e *eval.Evaluator, firstTok token.Token) Status {
	base, unsigned := baseDeclType(e, firstTok)

	for {
		ptr := false
		nameTok := e.Lx.Lex()
		if nameTok.Code.Tok() == token.MUL {
			ptr = true
			nameTok = e.Lx.Lex()
		}
		if nameTok.Code.Tok() != token.IDENTIFIER {
			e.Fail(qcerr.IdentifierExpected, nameTok.String())
		}

		declType := base
		if unsigned {
			declType |= token.UNSIGNED
		}
		if ptr {
			declType |= token.PTR
		}

		save := e.Lx.Pos()
		sq := e.Lx.Lex()
		if sq.Code.Tok() == token.OPENSQU {
			declareLocalArray(e, nameTok.Name, declType)
		} else {
			e.Lx.Seek(save)
			declareLocalScalar(e, nameTok.Name, declType)
		}

		sep := e.Lx.Lex()
		if sep.Code.Tok() == token.SEMI {
			return StatusNormal
		}
		if sep.Code.Tok() != token.COMMA {
			e.Fail(qcerr.CommaExpected, sep.String())
		}
	}
}

// baseDeclType resolves the leading type token(s) of a declaration
// ("unsigned" is a standalone flag keyword that must be followed by char
// or int) into the Atom type new locals of this declaration share.
func baseDeclType(e *eval.Evaluator, firstTok token.Token) (base token.Code, unsigned bool) {
	if firstTok.Code == token.UNSIGNED {
		next := e.Lx.Lex()
		if !next.Code.IsType() {
			e.Fail(qcerr.TypeExpected, next.String())
		}
		return next.Code, true
	}
	return firstTok.Code, false
}

func declareLocalArray(e *eval.Evaluator, name string, declType token.Code) {
	sizeTok := e.Lx.Lex()
	if sizeTok.Code.Tok() != token.NUMBER || sizeTok.IsFloat {
		e.Fail(qcerr.ArraySizeNotLiteral, sizeTok.String())
	}
	size := int(sizeTok.IVal)
	if size <= 0 || size > symtab.LocalArrayMax {
		e.Fail(qcerr.ArrayTooBig, name)
	}
	expectTok(e, token.CLOSESQU, qcerr.SquBraceExpected)

	// Array declarations don't take an initializer in this subset (spec.md
	// Non-goals: no aggregate initializer syntax).
	for i := 0; i < size; i++ {
		e.Mach.PushLocal(symtab.Variable{
			Name:  name,
			Flags: symtab.FlagArray,
			AIdx:  i,
			ASize: size,
			Datum: atom.Atom{Type: declType},
		}, e.Buf(), e.Pos())
	}
}

func declareLocalScalar(e *eval.Evaluator, name string, declType token.Code) {
	v := symtab.Variable{Name: name, ASize: 1, Datum: atom.Atom{Type: declType}}

	save := e.Lx.Pos()
	eqTok := e.Lx.Lex()
	if eqTok.Code.Tok() == token.ASSIGN {
		rhs := e.Eval()
		atom.Move(&v.Datum, rhs, e.Buf(), e.Pos())
		v.MarkInitialized()
	} else {
		e.Lx.Seek(save)
	}
	e.Mach.PushLocal(v, e.Buf(), e.Pos())
}
