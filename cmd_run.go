package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"qc/block"
	"qc/builtin"
	"qc/lexer"
	"qc/machine"
	"qc/prescan"
	"qc/qcerr"
)

// runCmd implements the "run" command.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a qc source file" }
func (*runCmd) Usage() string {
	return `run <file.qc>:
  Load, register, and execute a qc program, exiting with main's return value.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	code, err := runFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	os.Exit(code)
	return subcommands.ExitSuccess
}

// runFile loads path, registers its top-level declarations, calls main,
// and returns the exit code carried by main's return value (spec.md §4.5
// entry point; an int/char return becomes the process exit status, a void
// main exits 0).
func runFile(path string) (code int, err error) {
	mach := machine.New()
	builtin.Register(mach)

	ns, err := lexer.LoadProgram(path)
	if err != nil {
		return 1, err
	}
	mach.AddNamespace(ns)
	lx := lexer.New(ns)

	if err := prescan.Scan(mach, lx); err != nil {
		return 1, err
	}

	defer func() {
		if e := qcerr.Recover(recover()); e != nil {
			err = e
			code = 1
		}
	}()

	runInit(mach, lx)

	mainFn, _ := mach.LookupFunc("main")
	out := block.CallEntry(mach, lx, mainFn)
	mach.CloseAll()

	if out.Type.IsInt() {
		return int(out.I), nil
	}
	return 0, nil
}

// runInit calls "__init__" once, immediately after prescan and before
// "main", if the loaded file defines one (original_source/qcread.c's
// qc_load_file does the same, unconditionally trying the call and treating
// a file with no "__init__" as a no-op).
func runInit(mach *machine.Machine, lx *lexer.Lexer) {
	if fn, ok := mach.LookupFunc("__init__"); ok {
		block.CallEntry(mach, lx, fn)
	}
}
