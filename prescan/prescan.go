// Package prescan performs QC's single top-level registration pass
// (spec.md §4.3): before interpretation starts, walk a namespace's program
// buffer at brace depth zero and enter every function and global variable
// into its owning symbol table (the namespace's static tables for a
// "static"-qualified declaration, the machine's process-wide tables
// otherwise), raising NamesMatch on a duplicate name in the same scope.
// Function bodies are skipped unexecuted; global initializers, being
// constant expressions, are evaluated immediately through the ordinary
// expression evaluator.
//
// Grounded on the teacher's compiler package's single declare-before-use
// walk (compiler/resolver.go's hoisting pass) generalized from populating
// an AST symbol table to populating symtab.Table directly, since QC has no
// AST to annotate.
package prescan

import (
	"qc/atom"
	"qc/eval"
	"qc/lexer"
	"qc/machine"
	"qc/qcerr"
	"qc/symtab"
	"qc/token"
)

// Scan walks lx's namespace once, registering every top-level function and
// variable declaration, then confirms a "main" function exists (spec.md §7
// NOMAIN). Any qcerr raised mid-walk is returned as a normal error, the same
// recover convention lexer.LoadSource uses.
func Scan(mach *machine.Machine, lx *lexer.Lexer) (err error) {
	defer func() {
		if e := qcerr.Recover(recover()); e != nil {
			err = e
		}
	}()

	ns := lx.Namespace()
	ev := eval.New(mach, lx)

	for {
		tok := lx.Lex()
		if tok.Code == token.FINISHED {
			break
		}

		isStatic := false
		if tok.Code == token.STATIC {
			isStatic = true
			tok = lx.Lex()
		}
		if !tok.Code.IsType() && tok.Code != token.UNSIGNED {
			qcerr.Raise(qcerr.TypeExpected, ns.Buffer, tok.Pos, tok.String())
		}

		scanDecl(mach, ns, lx, ev, tok, isStatic)
	}

	if _, ok := mach.LookupFunc("main"); !ok {
		qcerr.Raise(qcerr.NoMain, ns.Buffer, len(ns.Buffer), "")
	}
	return nil
}

func scanDecl(mach *machine.Machine, ns *symtab.Namespace, lx *lexer.Lexer, ev *eval.Evaluator, typeTok token.Token, isStatic bool) {
	unsigned := false
	base := typeTok.Code
	if typeTok.Code == token.UNSIGNED {
		unsigned = true
		base = lx.Lex().Code
		if !base.IsType() {
			qcerr.Raise(qcerr.TypeExpected, ns.Buffer, lx.Pos(), "")
		}
	}
	if unsigned {
		base |= token.UNSIGNED
	}

	ptr := false
	nameTok := lx.Lex()
	if nameTok.Code.Tok() == token.MUL {
		ptr = true
		nameTok = lx.Lex()
	}
	if nameTok.Code.Tok() != token.IDENTIFIER {
		qcerr.Raise(qcerr.IdentifierExpected, ns.Buffer, nameTok.Pos, nameTok.String())
	}

	next := lx.Lex()
	if next.Code.Tok() == token.OPENPAREN {
		registerFunction(mach, ns, lx, nameTok.Name, base, isStatic, next.Pos)
		return
	}
	lx.Seek(next.Pos)
	registerGlobalList(mach, ns, lx, ev, nameTok.Name, ptr, base, isStatic)
}

func registerFunction(mach *machine.Machine, ns *symtab.Namespace, lx *lexer.Lexer, name string, ret token.Code, isStatic bool, openParen int) {
	minArgs := countParams(ns, lx)
	fn := &symtab.Function{
		Name:       name,
		BodyOffset: openParen,
		Namespace:  ns,
		Ret:        ret,
		MinArgs:    minArgs,
		MaxArgs:    minArgs,
		IsStatic:   isStatic,
	}
	insertFunc(mach, ns, isStatic, fn)

	expectOpenBr(ns, lx)
	skipBraceBody(lx)
}

// countParams re-lexes a function's own parameter list (the '(' has
// already been consumed by the caller) purely to count how many parameters
// it declares; bindParams in package block re-walks the identical text
// later to actually bind names, since nothing here is cached.
func countParams(ns *symtab.Namespace, lx *lexer.Lexer) int {
	first := lx.Lex()
	if first.Code.Tok() == token.CLOSEPAREN {
		return 0
	}
	if first.Code.Tok() == token.VOID {
		expectClosePar(ns, lx)
		return 0
	}
	lx.Seek(first.Pos)

	count := 0
	for {
		pt := lx.Lex()
		if pt.Code == token.UNSIGNED {
			pt = lx.Lex()
		}
		if !pt.Code.IsType() {
			qcerr.Raise(qcerr.TypeExpected, ns.Buffer, pt.Pos, pt.String())
		}
		nt := lx.Lex()
		if nt.Code.Tok() == token.MUL {
			nt = lx.Lex()
		}
		if nt.Code.Tok() != token.IDENTIFIER {
			qcerr.Raise(qcerr.IdentifierExpected, ns.Buffer, nt.Pos, nt.String())
		}
		count++
		sep := lx.Lex()
		if sep.Code.Tok() == token.CLOSEPAREN {
			return count
		}
		if sep.Code.Tok() != token.COMMA {
			qcerr.Raise(qcerr.CommaExpected, ns.Buffer, sep.Pos, sep.String())
		}
	}
}

func registerGlobalList(mach *machine.Machine, ns *symtab.Namespace, lx *lexer.Lexer, ev *eval.Evaluator, name string, ptr bool, base token.Code, isStatic bool) {
	for {
		declType := base
		if ptr {
			declType |= token.PTR
		}

		save := lx.Pos()
		tok := lx.Lex()
		if tok.Code.Tok() == token.OPENSQU {
			registerGlobalArray(mach, ns, lx, name, declType, isStatic)
		} else {
			lx.Seek(save)
			registerGlobalScalar(mach, ns, lx, ev, name, declType, isStatic)
		}

		sep := lx.Lex()
		if sep.Code.Tok() == token.SEMI {
			return
		}
		if sep.Code.Tok() != token.COMMA {
			qcerr.Raise(qcerr.CommaExpected, ns.Buffer, sep.Pos, sep.String())
		}

		ptr = false
		nameTok := lx.Lex()
		if nameTok.Code.Tok() == token.MUL {
			ptr = true
			nameTok = lx.Lex()
		}
		if nameTok.Code.Tok() != token.IDENTIFIER {
			qcerr.Raise(qcerr.IdentifierExpected, ns.Buffer, nameTok.Pos, nameTok.String())
		}
		name = nameTok.Name
	}
}

func registerGlobalArray(mach *machine.Machine, ns *symtab.Namespace, lx *lexer.Lexer, name string, declType token.Code, isStatic bool) {
	sizeTok := lx.Lex()
	if sizeTok.Code.Tok() != token.NUMBER || sizeTok.IsFloat {
		qcerr.Raise(qcerr.ArraySizeNotLiteral, ns.Buffer, sizeTok.Pos, sizeTok.String())
	}
	size := int(sizeTok.IVal)
	if size <= 0 || size > symtab.GlobalArrayMax {
		qcerr.Raise(qcerr.ArrayTooBig, ns.Buffer, sizeTok.Pos, name)
	}
	closeTok := lx.Lex()
	if closeTok.Code.Tok() != token.CLOSESQU {
		qcerr.Raise(qcerr.SquBraceExpected, ns.Buffer, closeTok.Pos, closeTok.String())
	}

	arr := make([]atom.Atom, size)
	for i := range arr {
		arr[i] = atom.Atom{Type: declType}
	}
	v := &symtab.Variable{Name: name, Flags: symtab.FlagArray, ASize: size, Array: arr}
	insertVar(mach, ns, isStatic, v)
}

func registerGlobalScalar(mach *machine.Machine, ns *symtab.Namespace, lx *lexer.Lexer, ev *eval.Evaluator, name string, declType token.Code, isStatic bool) {
	v := &symtab.Variable{Name: name, ASize: 1, Datum: atom.Atom{Type: declType}}

	save := lx.Pos()
	eqTok := lx.Lex()
	if eqTok.Code.Tok() == token.ASSIGN {
		rhs := ev.Eval()
		atom.Move(&v.Datum, rhs, ns.Buffer, lx.Pos())
		v.MarkInitialized()
	} else {
		lx.Seek(save)
	}
	insertVar(mach, ns, isStatic, v)
}

func insertFunc(mach *machine.Machine, ns *symtab.Namespace, isStatic bool, fn *symtab.Function) {
	table := mach.GlobalFuncs
	if isStatic {
		table = ns.Funcs
	}
	if _, exists := table.Lookup(fn.Name); exists {
		qcerr.Raise(qcerr.NamesMatch, ns.Buffer, fn.BodyOffset, fn.Name)
	}
	table.Insert(fn.Name, fn)
}

func insertVar(mach *machine.Machine, ns *symtab.Namespace, isStatic bool, v *symtab.Variable) {
	table := mach.GlobalVars
	if isStatic {
		table = ns.Vars
	}
	if _, exists := table.Lookup(v.Name); exists {
		qcerr.Raise(qcerr.NamesMatch, ns.Buffer, 0, v.Name)
	}
	table.Insert(v.Name, v)
}

func expectOpenBr(ns *symtab.Namespace, lx *lexer.Lexer) {
	tok := lx.Lex()
	if tok.Code.Tok() != token.OPENBR {
		qcerr.Raise(qcerr.SyntaxErr, ns.Buffer, tok.Pos, tok.String())
	}
}

func expectClosePar(ns *symtab.Namespace, lx *lexer.Lexer) {
	tok := lx.Lex()
	if tok.Code.Tok() != token.CLOSEPAREN {
		qcerr.Raise(qcerr.ParenExpected, ns.Buffer, tok.Pos, tok.String())
	}
}

// skipBraceBody consumes a function body's tokens up through its matching
// closing brace (the opening '{' has already been consumed by the caller).
// prescan never executes a body, only registers the function's signature.
func skipBraceBody(lx *lexer.Lexer) {
	depth := 1
	for depth > 0 {
		tok := lx.Lex()
		switch tok.Code.Tok() {
		case token.OPENBR:
			depth++
		case token.CLOSEBR:
			depth--
		case token.FINISHED:
			return
		}
	}
}
