// Package builtin implements QC's native function library (spec.md §6):
// printf, puts, fopen/fclose/fputs, getchar, and exit. Each is registered
// into the machine's process-wide function table as a symtab.Function whose
// Native field does the work — no source body, no namespace, called
// directly by package block's call dispatcher the same way a user function
// is, just skipping the interpret-a-body step.
//
// Grounded on the teacher's builtin registration in vm/ (native functions
// installed into the same table user functions live in) and on
// original_source/qc.h's builtin table (the fixed arg-count/return-type
// pairs these mirror).
package builtin

import (
	"fmt"
	"os"

	"qc/atom"
	"qc/machine"
	"qc/symtab"
	"qc/token"
)

// Register installs every builtin into mach's process-wide function table.
func Register(mach *machine.Machine) {
	add(mach, "printf", token.INT, 1, -1, printfFn)
	add(mach, "puts", token.INT, 1, 1, putsFn)
	add(mach, "getchar", token.INT, 0, 0, getcharFn)
	add(mach, "exit", token.VOID|token.VDFLG, 1, 1, exitFn)
	add(mach, "fopen", token.FILEPTR, 2, 2, fopenFn(mach))
	add(mach, "fclose", token.INT, 1, 1, fcloseFn(mach))
	add(mach, "fputs", token.INT, 2, 2, fputsFn(mach))
}

func add(mach *machine.Machine, name string, ret token.Code, min, max int, fn symtab.Builtin) {
	mach.GlobalFuncs.Insert(name, &symtab.Function{Name: name, Native: fn, Ret: ret, MinArgs: min, MaxArgs: max})
}

func printfFn(args []atom.Atom) (atom.Atom, error) {
	if len(args) == 0 {
		return atom.Atom{}, fmt.Errorf("printf: missing format string")
	}
	format, ok := args[0].P.(string)
	if !ok {
		return atom.Atom{}, fmt.Errorf("printf: format argument must be a string")
	}
	out, err := formatPrintf(format, args[1:])
	if err != nil {
		return atom.Atom{}, err
	}
	n, err := fmt.Fprint(os.Stdout, out)
	if err != nil {
		return atom.Atom{}, err
	}
	return atom.Int(token.INT, int64(n)), nil
}

func putsFn(args []atom.Atom) (atom.Atom, error) {
	s, ok := args[0].P.(string)
	if !ok {
		return atom.Atom{}, fmt.Errorf("puts: argument must be a string")
	}
	n, err := fmt.Fprintln(os.Stdout, s)
	if err != nil {
		return atom.Int(token.INT, -1), nil
	}
	return atom.Int(token.INT, int64(n)), nil
}

func getcharFn(args []atom.Atom) (atom.Atom, error) {
	var b [1]byte
	n, err := os.Stdin.Read(b[:])
	if n == 0 || err != nil {
		return atom.Int(token.INT, -1), nil
	}
	return atom.Int(token.INT, int64(b[0])), nil
}

func exitFn(args []atom.Atom) (atom.Atom, error) {
	code := 0
	if len(args) > 0 {
		code = int(args[0].I)
	}
	os.Exit(code)
	return atom.Atom{}, nil
}

func fopenFn(mach *machine.Machine) symtab.Builtin {
	return func(args []atom.Atom) (atom.Atom, error) {
		path, ok := args[0].P.(string)
		if !ok {
			return atom.Atom{}, fmt.Errorf("fopen: path must be a string")
		}
		mode, ok := args[1].P.(string)
		if !ok {
			return atom.Atom{}, fmt.Errorf("fopen: mode must be a string")
		}
		flag, err := flagsForMode(mode)
		if err != nil {
			return atom.Atom{Type: token.FILEPTR}, nil
		}
		f, err := os.OpenFile(path, flag, 0o644)
		if err != nil {
			return atom.Atom{Type: token.FILEPTR}, nil
		}
		id := mach.OpenFile(f, nil, 0)
		return atom.Atom{Type: token.FILEPTR, P: id}, nil
	}
}

func fcloseFn(mach *machine.Machine) symtab.Builtin {
	return func(args []atom.Atom) (atom.Atom, error) {
		id, ok := args[0].P.(int)
		if !ok || id == 0 {
			return atom.Int(token.INT, -1), nil
		}
		if err := mach.CloseFile(id); err != nil {
			return atom.Int(token.INT, -1), nil
		}
		return atom.Int(token.INT, 0), nil
	}
}

func fputsFn(mach *machine.Machine) symtab.Builtin {
	return func(args []atom.Atom) (atom.Atom, error) {
		s, ok := args[0].P.(string)
		if !ok {
			return atom.Atom{}, fmt.Errorf("fputs: first argument must be a string")
		}
		id, ok := args[1].P.(int)
		if !ok {
			return atom.Int(token.INT, -1), nil
		}
		f, ok := mach.File(id)
		if !ok {
			return atom.Int(token.INT, -1), nil
		}
		n, err := f.WriteString(s)
		if err != nil {
			return atom.Int(token.INT, -1), nil
		}
		return atom.Int(token.INT, int64(n)), nil
	}
}

func flagsForMode(mode string) (int, error) {
	switch mode {
	case "r":
		return os.O_RDONLY, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "r+":
		return os.O_RDWR, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, nil
	default:
		return 0, fmt.Errorf("fopen: unknown mode %q", mode)
	}
}
