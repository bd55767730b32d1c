package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"qc/atom"
	"qc/block"
	"qc/builtin"
	"qc/lexer"
	"qc/machine"
	"qc/prescan"
	"qc/qcerr"
	"qc/token"
)

// replCmd implements the "repl" command.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive qc session" }
func (*replCmd) Usage() string {
	return `repl [file.qc ...]:
  Evaluate qc statements interactively, one line at a time. Any files given
  are loaded and prescanned first, and each one's "__init__" is run (if it
  has one) before the prompt starts.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\n\nqc interactive session - ctrl-d or \"exit\" to quit")
	if err := repl(os.Stdout, f.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// repl runs one shared Machine across every entered line, so a variable
// declared on one line is still visible on the next (spec.md §4.3/§5:
// declarations and locals outlive the statement that created them, for as
// long as the process runs). Each line gets its own throwaway
// Namespace/Lexer; only the Machine's tables and local stack persist. A
// line is never prescanned, so functions come only from preloaded files'
// non-static declarations and the builtins. Line editing/history is handled by readline rather than a bare
// bufio scan.
func repl(out io.Writer, preload []string) error {
	mach := machine.New()
	builtin.Register(mach)

	for _, path := range preload {
		if err := loadAndInit(mach, path); err != nil {
			return err
		}
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: "qc> "})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}
		evalLine(mach, out, line)
	}
}

// loadAndInit loads path into mach as a new namespace, prescans it, and
// runs its "__init__" if it defines one, the same sequence runFile follows
// for the "run" command.
func loadAndInit(mach *machine.Machine, path string) (err error) {
	defer func() {
		if e := qcerr.Recover(recover()); e != nil {
			err = e
		}
	}()

	ns, err := lexer.LoadProgram(path)
	if err != nil {
		return err
	}
	mach.AddNamespace(ns)
	lx := lexer.New(ns)

	if err := prescan.Scan(mach, lx); err != nil {
		return err
	}
	runInit(mach, lx)
	return nil
}

// evalLine loads one line of input, guesses whether it starts an
// expression (as opposed to a declaration or control-flow keyword), and
// either prints the expression's value or runs it as a statement.
func evalLine(mach *machine.Machine, out io.Writer, line string) {
	defer func() {
		if e := qcerr.Recover(recover()); e != nil {
			fmt.Fprintln(out, e)
		}
	}()

	ns, err := lexer.LoadSource("<repl>", []byte(line))
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	mach.AddNamespace(ns)
	lx := lexer.New(ns)
	ev := block.NewEvaluator(mach, lx)

	tok := lx.Lex()
	lx.Seek(tok.Pos)
	if !looksLikeExpr(tok) {
		block.Interpret(ev)
		return
	}

	v := ev.Eval()
	trailing := lx.Lex()
	if trailing.Code.Tok() != token.SEMI && trailing.Code != token.FINISHED {
		fmt.Fprintf(out, "💥 qc: unexpected %s\n", trailing.String())
		return
	}
	printAtom(out, v)
}

// looksLikeExpr reports whether tok could start a bare expression
// statement, as opposed to a declaration or a control-flow keyword that
// block.Interpret must dispatch on its own.
func looksLikeExpr(tok token.Token) bool {
	if tok.Code.IsType() || tok.Code == token.UNSIGNED || tok.Code == token.STATIC {
		return false
	}
	switch tok.Code.Tok() {
	case token.IF, token.WHILE, token.FOR, token.DO, token.RETURN, token.BREAK,
		token.OPENBR, token.SEMI, token.FINISHED:
		return false
	default:
		return true
	}
}

// printAtom renders one evaluated value the way a REPL echoes its last
// expression's result.
func printAtom(out io.Writer, v atom.Atom) {
	switch {
	case v.Type.IsFloat():
		fmt.Fprintln(out, v.F)
	case v.Type.IsPtr():
		if s, ok := v.P.(string); ok {
			fmt.Fprintln(out, s)
			return
		}
		fmt.Fprintf(out, "0x%x\n", v.I)
	default:
		fmt.Fprintln(out, v.I)
	}
}
