// Package machine holds QC's process-wide interpreter state (spec.md §5):
// the local-variable stack, the frame-pointer stack, the builtin argument
// stack, the namespace list, and the open-file table. There is exactly one
// Machine per running interpreter, matching §5's "single-threaded,
// synchronous, non-reentrant... process-wide state" model.
//
// This package is the direct descendant of the teacher's vm/ package. The
// bytecode instruction dispatch loop (vm.go) is gone — spec.md §1 excludes
// bytecode emission as a non-goal — but the teacher's Stack shape survives,
// generalized into the three fixed-capacity stacks below, and vm/errors.go's
// RuntimeError naming precedent lives on folded into qcerr.Error.
package machine

import (
	"os"

	"qc/atom"
	"qc/qcerr"
	"qc/symtab"
)

// Machine is the interpreter's complete mutable runtime state.
type Machine struct {
	// Locals is the fixed local-variable stack (spec.md §3, capacity
	// NumLocalVars): a call frame is the range [frameBottom, Locals.Top()).
	Locals *Stack[symtab.Variable]

	// Frames is the frame-pointer stack (spec.md §3): each entry is a
	// saved Locals.Top() value, pushed on user-call entry and popped on
	// return to restore the caller's view of the local stack.
	Frames *Stack[int]

	// Args is the builtin argument stack (spec.md §3): pushed in reverse
	// by the evaluator before a builtin call, drained by the builtin via
	// PopArg, and reset to empty once the call returns.
	Args *Stack[atom.Atom]

	// GlobalFuncs/GlobalVars are the process-wide ("non-static") symbol
	// tables; the Current Namespace's static tables are searched first,
	// falling back to these (spec.md §3 Function/Variable invariants).
	GlobalFuncs *symtab.Table[symtab.Function]
	GlobalVars  *symtab.Table[symtab.Variable]

	// Namespaces is the process-wide list of loaded files; Current is
	// whichever one the evaluator/block interpreter is presently resolving
	// identifiers against.
	Namespaces *symtab.Namespace
	Current    *symtab.Namespace

	// Return holds the most recent `return` statement's value, copied into
	// the caller's output Atom by the function-call dispatcher (§4.5).
	Return atom.Atom

	files map[int]*os.File
	nextF int
}

// New creates an empty Machine with spec.md's fixed stack capacities.
func New() *Machine {
	return &Machine{
		Locals: NewStack[symtab.Variable](symtab.NumLocalVars),
		Frames: NewStack[int](symtab.NumFuncCalls),
		Args:   NewStack[atom.Atom](symtab.NumArgs),

		GlobalFuncs: symtab.NewTable[symtab.Function](symtab.NumStaticFunc),
		GlobalVars:  symtab.NewTable[symtab.Variable](symtab.NumStaticVars),

		files: make(map[int]*os.File),
		nextF: 1,
	}
}

// AddNamespace links ns into the process-wide namespace list and makes it
// current.
func (m *Machine) AddNamespace(ns *symtab.Namespace) {
	ns.Next = m.Namespaces
	m.Namespaces = ns
	m.Current = ns
}

// PushFrame records the current Locals.Top() on the frame stack, raising
// NestFunc on overflow (spec.md §3 "Stack overflow raises 'nested function
// calls'").
func (m *Machine) PushFrame(buf []byte, pos int) {
	m.Frames.Push(m.Locals.Top(), qcerr.NestFunc, buf, pos)
}

// PushFrameAt records an explicit frame bottom rather than the current
// Locals.Top(), used by a user-function call: the frame bottom is snapshot
// *before* the call's evaluated arguments are pushed, so PopFrame later
// discards the whole callee frame, parameters included (spec.md §4.5).
func (m *Machine) PushFrameAt(bottom int, buf []byte, pos int) {
	m.Frames.Push(bottom, qcerr.NestFunc, buf, pos)
}

// PopFrame restores Locals to the most recently pushed frame's bottom.
func (m *Machine) PopFrame() {
	top, ok := m.Frames.Pop()
	if !ok {
		return
	}
	m.Locals.Truncate(top)
}

// PushLocal pushes one Variable onto the local stack, raising
// TooManyLvars on overflow.
func (m *Machine) PushLocal(v symtab.Variable, buf []byte, pos int) {
	m.Locals.Push(v, qcerr.TooManyLvars, buf, pos)
}

// PushArg pushes a builtin-call argument, raising TooManyArgs on overflow.
func (m *Machine) PushArg(a atom.Atom, buf []byte, pos int) {
	m.Args.Push(a, qcerr.TooManyArgs, buf, pos)
}

// PopArg pops one builtin-call argument in LIFO order.
func (m *Machine) PopArg() (atom.Atom, bool) { return m.Args.Pop() }

// ResetArgs empties the argument stack after a builtin call returns
// (spec.md §3 "reset to empty after the call returns").
func (m *Machine) ResetArgs() { m.Args.Truncate(0) }

// frameBottom returns the lowest local-stack index visible to whatever is
// currently executing: the most recently pushed frame's bottom, or 0 at
// top level (the REPL's unframed top level, where locals from earlier
// lines must stay visible). Locals below this index belong to a caller and
// are not in scope (spec.md §3: visible locals are exactly
// lvar_stack[frame_bottom..tos)).
func (m *Machine) frameBottom() int {
	if bottom, ok := m.Frames.Peek(); ok {
		return bottom
	}
	return 0
}

// LookupVar resolves an identifier the way §4.4's atom level specifies:
// the current frame's locals first (top to bottom, honoring multi-slot
// array runs), then the current namespace's static table, then the
// process-wide global table. A name matching a caller's local (below the
// current frame bottom) is out of scope and falls through instead.
func (m *Machine) LookupVar(name string) (*symtab.Variable, bool) {
	locals := m.Locals.Slice()
	bottom := m.frameBottom()
	for i := len(locals) - 1; i >= bottom; i-- {
		if locals[i].Name == name {
			// Walk back to the AIdx==0 slot of a multi-slot array match
			// (spec.md §3 "Local variable stack" invariant).
			for i > bottom && locals[i].AIdx != 0 && locals[i-1].Name == name {
				i--
			}
			return &locals[i], true
		}
	}
	if m.Current != nil {
		if v, ok := m.Current.Vars.Lookup(name); ok {
			return v, true
		}
	}
	return m.GlobalVars.Lookup(name)
}

// LookupVarRef resolves name the same way LookupVar does, but returns an
// addressable symtab.VarRef instead of a bare *Variable: a local array
// match yields a ref into the live local-stack slice (Index is the
// resolved slot's absolute stack position, so "&a[i]" and a pointer walked
// forward by i land on the same slot); a global array match yields a ref
// into the Variable's own Array; anything else yields a scalar ref.
func (m *Machine) LookupVarRef(name string) (*symtab.VarRef, *symtab.Variable, bool) {
	locals := m.Locals.Slice()
	bottom := m.frameBottom()
	for i := len(locals) - 1; i >= bottom; i-- {
		if locals[i].Name == name {
			for i > bottom && locals[i].AIdx != 0 && locals[i-1].Name == name {
				i--
			}
			return &symtab.VarRef{Locals: &locals, Index: i}, &locals[i], true
		}
	}
	if m.Current != nil {
		if v, ok := m.Current.Vars.Lookup(name); ok {
			return refForVar(v), v, true
		}
	}
	if v, ok := m.GlobalVars.Lookup(name); ok {
		return refForVar(v), v, true
	}
	return nil, nil, false
}

func refForVar(v *symtab.Variable) *symtab.VarRef {
	if v.Array != nil {
		return &symtab.VarRef{Array: &v.Array}
	}
	return &symtab.VarRef{Scalar: v}
}

// LookupFunc resolves a function name: the current namespace's static
// table first, then the process-wide table (spec.md §3 Function
// invariant: "during lookup the namespace is searched first").
func (m *Machine) LookupFunc(name string) (*symtab.Function, bool) {
	if m.Current != nil {
		if f, ok := m.Current.Funcs.Lookup(name); ok {
			return f, true
		}
	}
	return m.GlobalFuncs.Lookup(name)
}

// OpenFile registers f under a fresh handle id, raising TooManyFiles past
// the fixed MaxFiles cap (spec.md §5).
func (m *Machine) OpenFile(f *os.File, buf []byte, pos int) int {
	if len(m.files) >= symtab.MaxFiles {
		qcerr.Raise(qcerr.TooManyFiles, buf, pos, "too many open files")
	}
	id := m.nextF
	m.nextF++
	m.files[id] = f
	return id
}

// File resolves a handle id back to its *os.File.
func (m *Machine) File(id int) (*os.File, bool) {
	f, ok := m.files[id]
	return f, ok
}

// CloseFile closes and forgets the given handle id.
func (m *Machine) CloseFile(id int) error {
	f, ok := m.files[id]
	if !ok {
		return nil
	}
	delete(m.files, id)
	return f.Close()
}

// CloseAll closes every still-open file, the cleanup §5 requires at
// process end.
func (m *Machine) CloseAll() {
	for id, f := range m.files {
		f.Close()
		delete(m.files, id)
	}
}
