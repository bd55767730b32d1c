package block

import (
	"qc/atom"
	"qc/eval"
	"qc/lexer"
	"qc/machine"
	"qc/qcerr"
	"qc/symtab"
	"qc/token"
)

// NewEvaluator builds an Evaluator wired to this package's call dispatcher,
// the one place that knows how to construct one correctly (an Evaluator
// with a nil Call can only evaluate call-free expressions).
func NewEvaluator(mach *machine.Machine, lx *lexer.Lexer) *eval.Evaluator {
	e := eval.New(mach, lx)
	e.Call = CallFunction
	return e
}

// CallFunction is QC's function-call dispatcher (spec.md §4.5). It is
// installed onto every Evaluator this package builds (see NewEvaluator),
// breaking the eval/block import cycle: eval needs to dispatch a call
// while parsing a level-8 leaf, and a user call's body is itself
// interpreted by this package.
func CallFunction(out *atom.Atom, name string, e *eval.Evaluator) {
	fn, ok := e.Mach.LookupFunc(name)
	if !ok {
		e.Fail(qcerr.FuncUndefined, name)
		return
	}

	expectTok(e, token.OPENPAREN, qcerr.ParenExpected)
	var args []atom.Atom
	tok := e.Lx.Lex()
	if tok.Code.Tok() != token.CLOSEPAREN {
		e.Lx.Seek(tok.Pos)
		for {
			args = append(args, e.Eval())
			sep := e.Lx.Lex()
			if sep.Code.Tok() == token.CLOSEPAREN {
				break
			}
			if sep.Code.Tok() != token.COMMA {
				e.Fail(qcerr.CommaExpected, sep.String())
			}
		}
	}

	if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
		e.Fail(qcerr.ParamErr, name)
		return
	}

	if fn.IsBuiltin() {
		callBuiltin(out, fn, args, e)
		return
	}
	callUser(out, fn, args, e)
}

// CallEntry invokes fn (looked up by the host driver, typically "main")
// with zero arguments — the same machinery an ordinary call expression
// drives, minus the call-site tokens to parse, since the host enters the
// program directly rather than through a parsed expression (spec.md §4.5).
func CallEntry(mach *machine.Machine, lx *lexer.Lexer, fn *symtab.Function) atom.Atom {
	e := NewEvaluator(mach, lx)
	var out atom.Atom
	if fn.IsBuiltin() {
		callBuiltin(&out, fn, nil, e)
	} else {
		callUser(&out, fn, nil, e)
	}
	return out
}

// callBuiltin pushes the evaluated arguments onto the machine's fixed
// argument stack (so TooManyArgs fires once that stack's capacity is
// exceeded), drains them back into call order, and invokes the
// native Go implementation (spec.md §6).
func callBuiltin(out *atom.Atom, fn *symtab.Function, args []atom.Atom, e *eval.Evaluator) {
	for i := len(args) - 1; i >= 0; i-- {
		e.Mach.PushArg(args[i], e.Buf(), e.Pos())
	}
	drained := make([]atom.Atom, 0, len(args))
	for range args {
		v, _ := e.Mach.PopArg()
		drained = append(drained, v)
	}
	e.Mach.ResetArgs()

	result, err := fn.Native(drained)
	if err != nil {
		if qerr, ok := err.(*qcerr.Error); ok {
			panic(qerr)
		}
		e.Fail(qcerr.Fatal, err.Error())
		return
	}
	*out = atom.Atom{Type: fn.Ret}
	atom.Move(out, result, e.Buf(), e.Pos())
}

// callUser pushes the evaluated arguments as unnamed local slots, enters
// the callee's namespace/body, binds parameter names onto those slots, runs
// the body, then restores the caller's cursor and namespace (spec.md §4.5:
// "evaluate arguments at the current local-stack position... save the
// pre-call lvar_tos onto the frame stack").
func callUser(out *atom.Atom, fn *symtab.Function, args []atom.Atom, e *eval.Evaluator) {
	mach := e.Mach
	frameBottom := mach.Locals.Top()

	for _, v := range args {
		mach.PushLocal(symtab.Variable{Datum: v, Flags: symtab.FlagInitialized, ASize: 1}, e.Buf(), e.Pos())
	}
	mach.PushFrameAt(frameBottom, e.Buf(), e.Pos())

	prevNs, prevPos := e.Lx.SwitchNamespace(fn.Namespace, fn.BodyOffset)
	prevCur := mach.Current
	mach.Current = fn.Namespace

	bindParams(e, frameBottom, fn)
	status := Interpret(e)
	_ = status

	e.Lx.Restore(prevNs, prevPos)
	mach.Current = prevCur
	mach.PopFrame()

	*out = atom.Atom{Type: fn.Ret}
	atom.Move(out, mach.Return, e.Buf(), e.Pos())
	mach.Return = atom.Atom{}
}

// bindParams re-lexes fn's own parameter list (starting at its recorded
// '(') and renames the already-pushed unnamed local slots [base, base+n) to
// match, coercing each argument's value to its declared parameter type in
// the same way an ordinary assignment would (spec.md §4.5 "stack-var init
// flags and size are set by the pusher; the parameter list supplies names").
func bindParams(e *eval.Evaluator, base int, fn *symtab.Function) {
	expectTok(e, token.OPENPAREN, qcerr.ParenExpected)

	first := e.Lx.Lex()
	if first.Code.Tok() == token.VOID {
		expectTok(e, token.CLOSEPAREN, qcerr.ParenExpected)
		return
	}
	if first.Code.Tok() == token.CLOSEPAREN {
		return
	}

	idx := base
	tok := first
	for {
		unsigned := false
		typeTok := tok
		if typeTok.Code == token.UNSIGNED {
			unsigned = true
			typeTok = e.Lx.Lex()
		}
		if !typeTok.Code.IsType() {
			e.Fail(qcerr.TypeExpected, typeTok.String())
		}

		declType := typeTok.Code
		if unsigned {
			declType |= token.UNSIGNED
		}

		nameTok := e.Lx.Lex()
		if nameTok.Code.Tok() == token.MUL {
			declType |= token.PTR
			nameTok = e.Lx.Lex()
		}
		if nameTok.Code.Tok() != token.IDENTIFIER {
			e.Fail(qcerr.IdentifierExpected, nameTok.String())
		}

		bindParam(e.Mach, idx, declType, nameTok.Name, e.Buf(), e.Pos())
		idx++

		sep := e.Lx.Lex()
		if sep.Code.Tok() == token.CLOSEPAREN {
			return
		}
		if sep.Code.Tok() != token.COMMA {
			e.Fail(qcerr.CommaExpected, sep.String())
		}
		tok = e.Lx.Lex()
	}
}

func bindParam(mach *machine.Machine, idx int, declType token.Code, name string, buf []byte, pos int) {
	slot := mach.Locals.At(idx)
	declared := atom.Atom{Type: declType}
	atom.Move(&declared, slot.Datum, buf, pos)
	slot.Datum = declared
	slot.Name = name
	slot.ASize = 1
	slot.MarkInitialized()
}
