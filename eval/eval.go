// Package eval implements QC's expression evaluator (spec.md §4.4) and
// function-call dispatch (§4.5): nine precedence levels of recursive
// descent running directly over the token stream, with no parse tree —
// every level receives an output Atom by reference and may mutate it and
// recurse, the same way the block interpreter re-lexes a loop body on
// every iteration instead of caching it.
//
// Grounded on the teacher's parser/parser.go recursive-descent shape
// (peek/advance/isMatch, one method per precedence level, operator-class
// token slices) — the control flow survives almost exactly, but each level
// evaluates straight into an atom.Atom instead of building an ast.Expression
// node, since spec.md's non-goals explicitly exclude tree/bytecode caching.
package eval

import (
	"qc/atom"
	"qc/lexer"
	"qc/machine"
	"qc/qcerr"
	"qc/symtab"
	"qc/token"
)

// Evaluator evaluates expressions against one Lexer cursor and one Machine.
type Evaluator struct {
	Mach *machine.Machine
	Lx   *lexer.Lexer

	// Call dispatches a function invocation (user or builtin); the block
	// package injects this so eval does not need to import it back (eval
	// is called by block for every expression, and block in turn needs the
	// evaluator for call-argument evaluation — this breaks that cycle).
	Call func(out *atom.Atom, name string, e *Evaluator)
}

// New creates an Evaluator bound to mach and lx.
func New(mach *machine.Machine, lx *lexer.Lexer) *Evaluator {
	return &Evaluator{Mach: mach, Lx: lx}
}

func (e *Evaluator) buf() []byte { return e.Lx.Namespace().Buffer }
func (e *Evaluator) pos() int    { return e.Lx.Pos() }

// Buf and Pos expose the same coordinates to the block package, which
// raises qcerr.Errors of its own (statement syntax, loop/branch dispatch)
// without reimplementing this bookkeeping.
func (e *Evaluator) Buf() []byte { return e.buf() }
func (e *Evaluator) Pos() int    { return e.pos() }

func (e *Evaluator) fail(kind qcerr.Kind, detail string) {
	qcerr.Raise(kind, e.buf(), e.pos(), detail)
}

// Fail lets the block package raise a qcerr.Error at the evaluator's
// current cursor without duplicating buf/pos bookkeeping.
func (e *Evaluator) Fail(kind qcerr.Kind, detail string) { e.fail(kind, detail) }

// Eval evaluates one level-0 expression and returns its value.
func (e *Evaluator) Eval() atom.Atom {
	var out atom.Atom
	e.level0(&out)
	return out
}

func boolAtom(v bool) atom.Atom {
	if v {
		return atom.Int(token.INT, 1)
	}
	return atom.Int(token.INT, 0)
}

// level0 handles assignment (plain and compound), and prefix/postfix
// ++/-- (spec.md §4.4 "Level-0 details"). Right-associative: the RHS of an
// assignment is itself evaluated at level 0 so chained assignment works.
func (e *Evaluator) level0(out *atom.Atom) {
	tok := e.Lx.Lex()

	switch tok.Code.Tok() {
	case token.IDENTIFIER:
		if _, isFunc := e.Mach.LookupFunc(tok.Name); isFunc {
			e.Lx.Putback(tok)
			e.level1(out)
			return
		}
		ref, v, isVar := e.Mach.LookupVarRef(tok.Name)
		next := e.Lx.Lex()
		if isVar && next.Code.Tok() == token.OPENSQU {
			// Consume the subscript first, so the token after ']' decides
			// whether this is an assignment target.
			e.Lx.Putback(next)
			e.checkSubscript(ref, v)
			next = e.Lx.Lex()
		}
		switch {
		case token.Assignment.Has(next.Code):
			if !isVar {
				e.fail(qcerr.NotVariable, tok.Name)
			}
			var rhs atom.Atom
			e.level0(&rhs)
			*out = ref.Load()
			e.applyAssign(next.Code, out, rhs)
			ref.Store(*out)
			return
		case next.Code == token.PLUSPLUS || next.Code == token.MINUSMINUS:
			if !isVar {
				e.fail(qcerr.NotVariable, tok.Name)
			}
			old := ref.Load()
			*out = old
			e.step(ref, old, next.Code)
			return
		default:
			e.Lx.Seek(tok.Pos)
			e.level1(out)
			return
		}
	case token.PLUSPLUS, token.MINUSMINUS:
		ident := e.Lx.Lex()
		if ident.Code.Tok() != token.IDENTIFIER {
			e.fail(qcerr.IdentifierExpected, "")
		}
		ref, v := e.mustVarRef(ident.Name)
		e.checkSubscript(ref, v)
		old := ref.Load()
		e.step(ref, old, tok.Code)
		*out = ref.Load()
		return
	case token.MUL:
		// A dereferenced pointer assignment target ("*expr = ..."): the
		// left operand is read via level 8 (spec.md §4.4 "ptr2var...
		// recurses into level 8"), then an assignment operator after it
		// commits through the pointer; otherwise we fall back to ordinary
		// unary-deref parsing at level 7.
		var ptr atom.Atom
		e.level8(&ptr)
		next := e.Lx.Lex()
		if token.Assignment.Has(next.Code) {
			ref, ok := ptr.P.(atom.Ref)
			if !ptr.Type.IsPtr() && !ok {
				e.fail(qcerr.Deref, "dereference of non-pointer")
			}
			if !ok || ref == nil {
				e.fail(qcerr.PtrRefErr, "invalid pointer reference")
			}
			var rhs atom.Atom
			e.level0(&rhs)
			*out = ref.Load()
			e.applyAssign(next.Code, out, rhs)
			ref.Store(*out)
			return
		}
		e.Lx.Seek(tok.Pos)
		e.level1(out)
	default:
		e.Lx.Putback(tok)
		e.level1(out)
	}
}

// step applies ++ or -- to ref in place, storing the new value.
func (e *Evaluator) step(ref *symtab.VarRef, cur atom.Atom, op token.Code) {
	newVal := cur
	one := atom.Int(token.INT, 1)
	if op == token.PLUSPLUS {
		atom.Add(&newVal, one, e.buf(), e.pos())
	} else {
		atom.Sub(&newVal, one, e.buf(), e.pos())
	}
	ref.Store(newVal)
}

// applyAssign mutates out in place per the assignment token: plain `=`
// moves src in; a compound form first applies the corresponding binary
// operator with the pre-assignment value as destination.
func (e *Evaluator) applyAssign(assignTok token.Code, out *atom.Atom, src atom.Atom) {
	if assignTok == token.ASSIGN {
		atom.Move(out, src, e.buf(), e.pos())
		return
	}
	binOp, ok := token.AssignOpToBinary[assignTok]
	if !ok {
		e.fail(qcerr.SyntaxErr, "unknown compound assignment")
	}
	e.applyBinary(binOp, out, src)
}

// applyBinary dispatches a single value-engine binary operator by token.
func (e *Evaluator) applyBinary(op token.Code, dst *atom.Atom, src atom.Atom) {
	buf, pos := e.buf(), e.pos()
	switch op {
	case token.PLUS:
		atom.Add(dst, src, buf, pos)
	case token.MINUS:
		atom.Sub(dst, src, buf, pos)
	case token.MUL:
		atom.Mul(dst, src, buf, pos)
	case token.DIV:
		atom.Div(dst, src, buf, pos)
	case token.MOD:
		atom.Mod(dst, src, buf, pos)
	case token.AND:
		atom.And(dst, src, buf, pos)
	case token.OR:
		atom.Or(dst, src, buf, pos)
	case token.XOR:
		atom.Xor(dst, src, buf, pos)
	case token.LSL:
		atom.Shl(dst, src, buf, pos)
	case token.LSR:
		atom.Shr(dst, src, buf, pos)
	default:
		e.fail(qcerr.SyntaxErr, "unsupported operator")
	}
}

// level1: && || (left-associative).
func (e *Evaluator) level1(out *atom.Atom) {
	e.level2(out)
	for {
		tok := e.Lx.Lex()
		if !token.Logical.Has(tok.Code) {
			e.Lx.Putback(tok)
			return
		}
		var rhs atom.Atom
		e.level2(&rhs)
		switch tok.Code.Tok() {
		case token.LAND:
			*out = boolAtom(atom.Truthy(*out) && atom.Truthy(rhs))
		case token.LOR:
			*out = boolAtom(atom.Truthy(*out) || atom.Truthy(rhs))
		}
	}
}

// level2: & | ^ (left-associative).
func (e *Evaluator) level2(out *atom.Atom) {
	e.level3(out)
	for {
		tok := e.Lx.Lex()
		if !token.Binary.Has(tok.Code) {
			e.Lx.Putback(tok)
			return
		}
		var rhs atom.Atom
		e.level3(&rhs)
		e.applyBinary(tok.Code.Tok(), out, rhs)
	}
}

// level3: < <= > >= == != (left-associative).
func (e *Evaluator) level3(out *atom.Atom) {
	e.level4(out)
	for {
		tok := e.Lx.Lex()
		if !token.Comparison.Has(tok.Code) {
			e.Lx.Putback(tok)
			return
		}
		var rhs atom.Atom
		e.level4(&rhs)
		op := compareOpFor(tok.Code.Tok())
		*out = atom.Compare(*out, rhs, op, e.buf(), e.pos())
	}
}

func compareOpFor(c token.Code) atom.CompareOp {
	switch c {
	case token.LT:
		return atom.CmpLT
	case token.LE:
		return atom.CmpLE
	case token.GT:
		return atom.CmpGT
	case token.GE:
		return atom.CmpGE
	case token.EQ:
		return atom.CmpEQ
	default:
		return atom.CmpNE
	}
}

// level4: << >> (left-associative).
func (e *Evaluator) level4(out *atom.Atom) {
	e.level5(out)
	for {
		tok := e.Lx.Lex()
		if !token.Shift.Has(tok.Code) {
			e.Lx.Putback(tok)
			return
		}
		var rhs atom.Atom
		e.level5(&rhs)
		e.applyBinary(tok.Code.Tok(), out, rhs)
	}
}

// level5: + - (left-associative).
func (e *Evaluator) level5(out *atom.Atom) {
	e.level6(out)
	for {
		tok := e.Lx.Lex()
		if tok.Code.Tok() != token.PLUS && tok.Code.Tok() != token.MINUS {
			e.Lx.Putback(tok)
			return
		}
		var rhs atom.Atom
		e.level6(&rhs)
		e.applyBinary(tok.Code.Tok(), out, rhs)
	}
}

// level6: * / % (left-associative).
func (e *Evaluator) level6(out *atom.Atom) {
	e.level7(out)
	for {
		tok := e.Lx.Lex()
		if !token.MulDivMod.Has(tok.Code) {
			e.Lx.Putback(tok)
			return
		}
		var rhs atom.Atom
		e.level7(&rhs)
		e.applyBinary(tok.Code.Tok(), out, rhs)
	}
}

// level7: unary prefix - * ! ~ & ++ -- (right-associative).
func (e *Evaluator) level7(out *atom.Atom) {
	tok := e.Lx.Lex()
	switch tok.Code.Tok() {
	case token.MINUS:
		e.level7(out)
		if out.Type.IsFloat() {
			out.F = -out.F
		} else {
			out.I = -out.I
			atom.Crop(out)
		}
	case token.LNOT:
		e.level7(out)
		atom.LNot(out)
	case token.ANOT:
		e.level7(out)
		atom.Not(out, e.buf(), e.pos())
	case token.MUL:
		// Dereference: recurse into level7 again so "**p" chains, then
		// follow the pointer payload (spec.md §4.4 "Level 7 * recurses
		// into level 7 again").
		var ptr atom.Atom
		e.level7(&ptr)
		ref, ok := ptr.P.(atom.Ref)
		if !ptr.Type.IsPtr() && !ok {
			e.fail(qcerr.Deref, "dereference of non-pointer")
		}
		if !ok || ref == nil {
			e.fail(qcerr.PtrRefErr, "invalid pointer reference")
		}
		*out = ref.Load()
	case token.AND:
		// Address-of: does not evaluate the identifier's value, just
		// forms a pointer Atom addressing it (or, with a subscript, the
		// addressed element) (§4.4 "refuses non-identifier operands").
		ident := e.Lx.Lex()
		if ident.Code.Tok() != token.IDENTIFIER {
			e.fail(qcerr.IdentifierExpected, "")
		}
		ref, v := e.mustVarRef(ident.Name)
		e.checkSubscript(ref, v)
		*out = atom.Pointer(v.Datum.Type, ref)
	case token.PLUSPLUS, token.MINUSMINUS:
		ident := e.Lx.Lex()
		if ident.Code.Tok() != token.IDENTIFIER {
			e.fail(qcerr.IdentifierExpected, "")
		}
		ref, v := e.mustVarRef(ident.Name)
		e.checkSubscript(ref, v)
		e.step(ref, ref.Load(), tok.Code)
		*out = ref.Load()
	default:
		e.Lx.Putback(tok)
		e.level8(out)
	}
}

// level8: parenthesized expression or a leaf atom (identifier/call/number/
// string/NULL).
func (e *Evaluator) level8(out *atom.Atom) {
	tok := e.Lx.Lex()
	if tok.Code == token.CHARPTR {
		// A string literal carries the PTR flag in its full code, which
		// Tok() below would mask away, so it needs to be caught before the
		// primary-id switch rather than as one of its cases.
		decoded := e.Lx.Namespace().Strings[tok.StrIdx].Decoded
		*out = atom.Atom{Type: token.CHARPTR, P: decoded}
		return
	}
	switch tok.Code.Tok() {
	case token.OPENPAREN:
		e.level0(out)
		closeTok := e.Lx.Lex()
		if closeTok.Code.Tok() != token.CLOSEPAREN {
			e.fail(qcerr.ParenExpected, "")
		}
	case token.IDENTIFIER:
		if _, isFunc := e.Mach.LookupFunc(tok.Name); isFunc {
			if e.Call == nil {
				e.fail(qcerr.FuncUndefined, tok.Name)
			}
			e.Call(out, tok.Name, e)
			return
		}
		ref, v := e.mustVarRef(tok.Name)
		e.checkSubscript(ref, v)
		if !v.IsArray() && !v.IsInitialized() {
			e.fail(qcerr.Uninit, tok.Name)
		}
		*out = ref.Load()
	case token.NUMBER:
		if tok.IsFloat {
			*out = atom.Float(token.DBL|token.FLTFLG, tok.FVal)
		} else {
			t := token.INT
			if tok.Unsign {
				t = token.UINT
			}
			*out = atom.Int(t, tok.IVal)
		}
	case token.NULLTOK:
		*out = atom.Pointer(token.CHAR, nil)
	case token.CLOSESQU, token.CLOSEPAREN:
		// Let an upper level consume the closer without error (§4.4).
		e.Lx.Putback(tok)
	default:
		e.fail(qcerr.NoExpression, "")
	}
}

// mustVarRef resolves name to an addressable ref and its descriptor,
// raising NOT_VARIABLE if it is undeclared.
func (e *Evaluator) mustVarRef(name string) (*symtab.VarRef, *symtab.Variable) {
	ref, v, ok := e.Mach.LookupVarRef(name)
	if !ok {
		e.fail(qcerr.NotVariable, name)
	}
	return ref, v
}

// checkSubscript consumes an optional "[expr]" following an identifier
// reference, bounds-checks it against the variable's declared size, and
// advances ref to address that element in place.
func (e *Evaluator) checkSubscript(ref *symtab.VarRef, v *symtab.Variable) {
	tok := e.Lx.Lex()
	if tok.Code.Tok() != token.OPENSQU {
		e.Lx.Putback(tok)
		return
	}
	var idx atom.Atom
	e.level0(&idx)
	closeTok := e.Lx.Lex()
	if closeTok.Code.Tok() != token.CLOSESQU {
		e.fail(qcerr.SquBraceExpected, "")
	}
	i := int(idx.I)
	if !v.IsArray() || i < 0 || i >= v.ASize {
		e.fail(qcerr.ArrayBounds, v.Name)
	}
	stepped := ref.Advance(int64(i))
	*ref = *(stepped.(*symtab.VarRef))
}
