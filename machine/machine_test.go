package machine

import (
	"os"
	"testing"

	"qc/atom"
	"qc/symtab"
	"qc/token"
)

func tempFile(t *testing.T) (*os.File, error) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "qc-machine-test-*")
	return f, err
}

func TestPushFramePopFrameRestoresLocals(t *testing.T) {
	m := New()
	m.PushLocal(symtab.Variable{Name: "outer"}, nil, 0)
	m.PushFrame(nil, 0)
	m.PushLocal(symtab.Variable{Name: "inner1"}, nil, 0)
	m.PushLocal(symtab.Variable{Name: "inner2"}, nil, 0)

	if m.Locals.Top() != 3 {
		t.Fatalf("Locals.Top() = %d, want 3", m.Locals.Top())
	}
	m.PopFrame()
	if m.Locals.Top() != 1 {
		t.Fatalf("Locals.Top() after PopFrame = %d, want 1", m.Locals.Top())
	}
}

func TestPushFrameAtDiscardsArgsToo(t *testing.T) {
	m := New()
	m.PushLocal(symtab.Variable{Name: "caller_local"}, nil, 0)
	bottom := m.Locals.Top()

	// arguments are pushed after the frame-bottom snapshot, the way
	// callUser evaluates and pushes them before recording the frame.
	m.PushLocal(symtab.Variable{Name: "arg0"}, nil, 0)
	m.PushFrameAt(bottom, nil, 0)
	m.PushLocal(symtab.Variable{Name: "body_local"}, nil, 0)

	m.PopFrame()
	if m.Locals.Top() != bottom {
		t.Fatalf("Locals.Top() after PopFrame = %d, want %d (args discarded too)", m.Locals.Top(), bottom)
	}
}

func TestLookupVarPrefersLocalsOverGlobal(t *testing.T) {
	m := New()
	m.GlobalVars.Insert("x", &symtab.Variable{Name: "x", Datum: atom.Int(token.INT, 1)})
	m.PushLocal(symtab.Variable{Name: "x", Datum: atom.Int(token.INT, 2)}, nil, 0)

	v, ok := m.LookupVar("x")
	if !ok || v.Datum.I != 2 {
		t.Fatalf("LookupVar(x) = %+v, %v, want the local shadow (2)", v, ok)
	}
}

func TestLookupVarFallsBackToNamespaceThenGlobal(t *testing.T) {
	m := New()
	ns := symtab.NewNamespace("a.qc")
	ns.Vars.Insert("y", &symtab.Variable{Name: "y", Datum: atom.Int(token.INT, 10)})
	m.AddNamespace(ns)
	m.GlobalVars.Insert("z", &symtab.Variable{Name: "z", Datum: atom.Int(token.INT, 20)})

	if v, ok := m.LookupVar("y"); !ok || v.Datum.I != 10 {
		t.Fatalf("LookupVar(y) = %+v, %v, want namespace var (10)", v, ok)
	}
	if v, ok := m.LookupVar("z"); !ok || v.Datum.I != 20 {
		t.Fatalf("LookupVar(z) = %+v, %v, want global var (20)", v, ok)
	}
}

func TestLookupVarRefLocalArrayIndexesAbsoluteStackPosition(t *testing.T) {
	m := New()
	m.PushLocal(symtab.Variable{Name: "arr", AIdx: 0, ASize: 2, Flags: symtab.FlagArray, Datum: atom.Int(token.INT, 1)}, nil, 0)
	m.PushLocal(symtab.Variable{Name: "arr", AIdx: 1, ASize: 2, Flags: symtab.FlagArray, Datum: atom.Int(token.INT, 2)}, nil, 0)

	ref, _, ok := m.LookupVarRef("arr")
	if !ok {
		t.Fatalf("LookupVarRef(arr) not found")
	}
	stepped := ref.Advance(1).(*symtab.VarRef)
	if got := stepped.Load().I; got != 2 {
		t.Fatalf("arr advanced by 1 loaded %d, want 2", got)
	}
}

// TestLookupVarDoesNotLeakCallersLocalsIntoFrame confirms a name matching a
// caller's local, but not declared in the current frame, falls through to
// globals rather than resolving to the caller's slot (spec.md §3: visible
// locals are exactly lvar_stack[frame_bottom..tos)).
func TestLookupVarDoesNotLeakCallersLocalsIntoFrame(t *testing.T) {
	m := New()
	m.GlobalVars.Insert("n", &symtab.Variable{Name: "n", Datum: atom.Int(token.INT, 99)})
	m.PushLocal(symtab.Variable{Name: "n", Datum: atom.Int(token.INT, 1)}, nil, 0)
	m.PushFrame(nil, 0) // enter a callee frame with no locals of its own

	v, ok := m.LookupVar("n")
	if !ok || v.Datum.I != 99 {
		t.Fatalf("LookupVar(n) inside the callee frame = %+v, %v, want the global (99), not the caller's local", v, ok)
	}
}

func TestLookupFuncPrefersNamespaceOverGlobal(t *testing.T) {
	m := New()
	ns := symtab.NewNamespace("a.qc")
	ns.Funcs.Insert("helper", &symtab.Function{Name: "helper", IsStatic: true})
	m.AddNamespace(ns)
	m.GlobalFuncs.Insert("helper", &symtab.Function{Name: "helper"})

	fn, ok := m.LookupFunc("helper")
	if !ok || !fn.IsStatic {
		t.Fatalf("LookupFunc(helper) = %+v, %v, want the static namespace function", fn, ok)
	}
}

func TestPushLocalOverflowRaises(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic on local-stack overflow")
		}
	}()
	m := New()
	for i := 0; i < symtab.NumLocalVars+1; i++ {
		m.PushLocal(symtab.Variable{Name: "x"}, nil, 0)
	}
}

func TestOpenFileCloseFileRoundTrip(t *testing.T) {
	m := New()
	f, err := tempFile(t)
	if err != nil {
		t.Fatalf("tempFile: %v", err)
	}
	id := m.OpenFile(f, nil, 0)
	if _, ok := m.File(id); !ok {
		t.Fatalf("File(%d) not found right after OpenFile", id)
	}
	if err := m.CloseFile(id); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}
	if _, ok := m.File(id); ok {
		t.Fatalf("File(%d) still found after CloseFile", id)
	}
}
