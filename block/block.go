// Package block is QC's statement and control-flow interpreter (spec.md
// §4.6): declarations, expression statements, if/else, while, do/while,
// for, return, and break, all driven straight off the same re-lexing token
// stream the evaluator uses — there is no statement AST, just a cursor and
// a three-valued status threaded back up through nested constructs.
//
// Grounded on the teacher's interpreter.go (the statement-dispatch switch,
// and visitIf/visitWhile's "evaluate condition, recurse into body" shape)
// generalized from tree-walking an ast.Statement to re-lexing raw source,
// per the non-goal that rules out a cached parse tree.
package block

import (
	"qc/atom"
	"qc/eval"
	"qc/qcerr"
	"qc/token"
)

// Status is the three-valued result of interpreting one statement or block
// (spec.md §9 redesign note: normal completion, a break reaching its
// enclosing loop, or a return unwinding all the way to the calling
// function).
type Status int

const (
	StatusNormal Status = iota
	StatusBreak
	StatusReturn
)

// Interpret runs one statement: a braced block, or a single bare statement
// if the next token isn't '{'. This is the entry point both the top-level
// driver (one call per loaded namespace's implicit "run main") and a user
// function call (§4.5) use to execute a function body.
func Interpret(e *eval.Evaluator) Status {
	tok := e.Lx.Lex()
	if tok.Code.Tok() == token.OPENBR {
		return interpretBlockBody(e)
	}
	e.Lx.Seek(tok.Pos)
	return interpretStatement(e)
}

// interpretBlockBody executes statements until the matching CLOSEBR (the
// opening brace has already been consumed by the caller). If a nested
// statement signals break or return, remaining sibling statements are
// skipped unexecuted so the cursor still ends up parked right after the
// block, the same place it would land on ordinary completion.
func interpretBlockBody(e *eval.Evaluator) Status {
	for {
		tok := e.Lx.Lex()
		if tok.Code.Tok() == token.CLOSEBR || tok.Code == token.FINISHED {
			return StatusNormal
		}
		e.Lx.Seek(tok.Pos)
		st := interpretStatement(e)
		if st != StatusNormal {
			skipToBlockEnd(e, 1)
			return st
		}
	}
}

func interpretStatement(e *eval.Evaluator) Status {
	tok := e.Lx.Lex()

	if tok.Code.IsType() || tok.Code == token.UNSIGNED {
		return handleDeclaration(e, tok)
	}

	switch tok.Code.Tok() {
	case token.OPENBR:
		return interpretBlockBody(e)

	case token.SEMI:
		return StatusNormal

	case token.IDENTIFIER, token.MUL, token.PLUSPLUS, token.MINUSMINUS:
		e.Lx.Seek(tok.Pos)
		e.Eval()
		requireSemi(e)
		return StatusNormal

	case token.RETURN:
		nxt := e.Lx.Lex()
		if nxt.Code.Tok() == token.SEMI {
			e.Mach.Return = atom.Atom{}
			return StatusReturn
		}
		e.Lx.Seek(nxt.Pos)
		e.Mach.Return = e.Eval()
		requireSemi(e)
		return StatusReturn

	case token.BREAK:
		requireSemi(e)
		return StatusBreak

	case token.IF:
		return interpretIf(e)

	case token.WHILE:
		return interpretWhile(e)

	case token.DO:
		return interpretDo(e)

	case token.FOR:
		return interpretFor(e)

	case token.ELSE:
		// A stray "else" with no owning "if" — defensively skip its body
		// rather than crashing the dispatch switch.
		skipStatementOrBlock(e)
		return StatusNormal

	default:
		e.Fail(qcerr.SyntaxErr, tok.String())
		panic("unreachable")
	}
}

func interpretIf(e *eval.Evaluator) Status {
	cond := evalCond(e)
	if cond {
		st := Interpret(e)
		if st != StatusNormal {
			skipElse(e)
			return st
		}
		skipElse(e)
		return StatusNormal
	}
	skipStatementOrBlock(e)
	save := e.Lx.Pos()
	nxt := e.Lx.Lex()
	if nxt.Code.Tok() == token.ELSE {
		return Interpret(e)
	}
	e.Lx.Seek(save)
	return StatusNormal
}

// skipElse consumes and discards a trailing "else" clause that a taken "if"
// branch must not execute.
func skipElse(e *eval.Evaluator) {
	save := e.Lx.Pos()
	nxt := e.Lx.Lex()
	if nxt.Code.Tok() == token.ELSE {
		skipStatementOrBlock(e)
		return
	}
	e.Lx.Seek(save)
}

func interpretWhile(e *eval.Evaluator) Status {
	condStart := e.Lx.Pos()
	for {
		e.Lx.Seek(condStart)
		if !evalCond(e) {
			skipStatementOrBlock(e)
			return StatusNormal
		}
		st := Interpret(e)
		if st == StatusBreak {
			return StatusNormal
		}
		if st == StatusReturn {
			return st
		}
	}
}

func interpretDo(e *eval.Evaluator) Status {
	bodyStart := e.Lx.Pos()
	for {
		e.Lx.Seek(bodyStart)
		st := Interpret(e)
		if st == StatusBreak {
			expectKeyword(e, token.WHILE)
			skipParenGroup(e)
			requireSemi(e)
			return StatusNormal
		}
		if st == StatusReturn {
			return st
		}
		expectKeyword(e, token.WHILE)
		cond := evalCond(e)
		requireSemi(e)
		if !cond {
			return StatusNormal
		}
	}
}

func interpretFor(e *eval.Evaluator) Status {
	expectTok(e, token.OPENPAREN, qcerr.ParenExpected)

	initTok := e.Lx.Lex()
	if initTok.Code.Tok() != token.SEMI {
		e.Lx.Seek(initTok.Pos)
		e.Eval()
		requireSemi(e)
	}

	condStart := e.Lx.Pos()
	for {
		e.Lx.Seek(condStart)
		condTok := e.Lx.Lex()
		var cond bool
		if condTok.Code.Tok() == token.SEMI {
			cond = true
		} else {
			e.Lx.Seek(condTok.Pos)
			cond = atom.Truthy(e.Eval())
			requireSemi(e)
		}
		stepStart := e.Lx.Pos()
		skipToParenClose(e)
		bodyStart := e.Lx.Pos()

		if !cond {
			e.Lx.Seek(bodyStart)
			skipStatementOrBlock(e)
			return StatusNormal
		}

		e.Lx.Seek(bodyStart)
		st := Interpret(e)
		if st == StatusBreak {
			return StatusNormal
		}
		if st == StatusReturn {
			return st
		}

		e.Lx.Seek(stepStart)
		peek := e.Lx.Lex()
		if peek.Code.Tok() != token.CLOSEPAREN {
			e.Lx.Seek(peek.Pos)
			e.Eval()
		}
	}
}

// evalCond evaluates a parenthesized condition expression, per every
// control-flow construct's "(expr)" head.
func evalCond(e *eval.Evaluator) bool {
	expectTok(e, token.OPENPAREN, qcerr.ParenExpected)
	v := e.Eval()
	expectTok(e, token.CLOSEPAREN, qcerr.ParenExpected)
	return atom.Truthy(v)
}

func requireSemi(e *eval.Evaluator) {
	expectTok(e, token.SEMI, qcerr.SemiExpected)
}

func expectTok(e *eval.Evaluator, want token.Code, onMiss qcerr.Kind) {
	tok := e.Lx.Lex()
	if tok.Code.Tok() != want {
		e.Fail(onMiss, tok.String())
	}
}

func expectKeyword(e *eval.Evaluator, want token.Code) {
	tok := e.Lx.Lex()
	if tok.Code.Tok() != want {
		e.Fail(qcerr.WhileExpected, tok.String())
	}
}

// skipStatementOrBlock advances the cursor past one statement or braced
// block without executing any of it (an if's not-taken branch, a loop body
// whose condition started false).
func skipStatementOrBlock(e *eval.Evaluator) {
	tok := e.Lx.Lex()
	if tok.Code.Tok() == token.OPENBR {
		skipToBlockEnd(e, 1)
		return
	}
	e.Lx.Seek(tok.Pos)
	skipSingleStatement(e)
}

// skipSingleStatement walks one brace-less statement's tokens, recursing
// structurally into nested if/while/for/do so a nested compound statement
// doesn't fool a naive "stop at the next ;" scan (spec.md §4.6 "find end of
// block" note).
func skipSingleStatement(e *eval.Evaluator) {
	tok := e.Lx.Lex()
	switch tok.Code.Tok() {
	case token.IF:
		skipParenGroup(e)
		skipStatementOrBlock(e)
		save := e.Lx.Pos()
		nxt := e.Lx.Lex()
		if nxt.Code.Tok() == token.ELSE {
			skipStatementOrBlock(e)
		} else {
			e.Lx.Seek(save)
		}
	case token.WHILE:
		skipParenGroup(e)
		skipStatementOrBlock(e)
	case token.FOR:
		skipParenGroup(e)
		skipStatementOrBlock(e)
	case token.DO:
		skipStatementOrBlock(e)
		expectKeyword(e, token.WHILE)
		skipParenGroup(e)
		requireSemi(e)
	case token.OPENBR:
		skipToBlockEnd(e, 1)
	default:
		for {
			t := e.Lx.Lex()
			if t.Code.Tok() == token.SEMI || t.Code == token.FINISHED {
				return
			}
		}
	}
}

// skipToBlockEnd consumes tokens until brace depth returns to zero (depth
// counts the braces still open, starting from depth already-consumed opens).
func skipToBlockEnd(e *eval.Evaluator, depth int) {
	for depth > 0 {
		tok := e.Lx.Lex()
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

// skipParenGroup consumes a leading '(' through its matching ')'.
func skipParenGroup(e *eval.Evaluator) {
	expectTok(e, token.OPENPAREN, qcerr.ParenExpected)
	skipToParenClose(e)
}

// skipToParenClose consumes tokens up to and including the ')' matching an
// already-open '(' (depth 1), honoring nested parens from function calls.
func skipToParenClose(e *eval.Evaluator) {
	depth := 1
	for depth > 0 {
		tok := e.Lx.Lex()
		switch tok.Code.Tok() {
		case token.OPENPAREN:
			depth++
		case token.CLOSEPAREN:
			depth--
		case token.FINISHED:
			e.Fail(qcerr.UnbalParens, "")
			return
		}
	}
}
