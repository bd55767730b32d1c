package symtab

import (
	"testing"

	"qc/atom"
	"qc/token"
)

func TestVarRefScalarLoadStore(t *testing.T) {
	v := &Variable{Name: "x", Datum: atom.Int(token.INT, 1)}
	ref := &VarRef{Scalar: v}

	if got := ref.Load().I; got != 1 {
		t.Fatalf("Load() = %d, want 1", got)
	}
	ref.Store(atom.Int(token.INT, 42))
	if v.Datum.I != 42 {
		t.Fatalf("Store did not write through to the Variable: %d", v.Datum.I)
	}
	if !v.IsInitialized() {
		t.Fatalf("Store did not mark the variable initialized")
	}
}

func TestVarRefGlobalArrayAdvance(t *testing.T) {
	arr := []atom.Atom{atom.Int(token.INT, 10), atom.Int(token.INT, 20), atom.Int(token.INT, 30)}
	ref := &VarRef{Array: &arr, Index: 0}

	stepped := ref.Advance(2).(*VarRef)
	if got := stepped.Load().I; got != 30 {
		t.Fatalf("ref advanced by 2 loaded %d, want 30", got)
	}

	stepped.Store(atom.Int(token.INT, 99))
	if arr[2].I != 99 {
		t.Fatalf("store through the advanced ref did not reach the backing array: %d", arr[2].I)
	}
	// the original ref is untouched: Advance must not mutate its receiver.
	if ref.Index != 0 {
		t.Fatalf("Advance mutated the original ref's Index: %d", ref.Index)
	}
}

func TestVarRefLocalArrayAdvance(t *testing.T) {
	locals := []Variable{
		{Name: "a", AIdx: 0, ASize: 3, Datum: atom.Int(token.INT, 1)},
		{Name: "a", AIdx: 1, ASize: 3, Datum: atom.Int(token.INT, 2)},
		{Name: "a", AIdx: 2, ASize: 3, Datum: atom.Int(token.INT, 3)},
	}
	ref := &VarRef{Locals: &locals, Index: 0}

	stepped := ref.Advance(2).(*VarRef)
	if got := stepped.Load().I; got != 3 {
		t.Fatalf("&a[0] advanced by 2 loaded %d, want 3 (a[2])", got)
	}
}

func TestElemSynthesizesGlobalArrayView(t *testing.T) {
	v := &Variable{
		Name:  "arr",
		Flags: FlagArray,
		ASize: 2,
		Array: []atom.Atom{atom.Int(token.INT, 7), atom.Int(token.INT, 8)},
	}
	e := v.Elem(1)
	if e.AIdx != 1 || e.Datum.I != 8 {
		t.Fatalf("Elem(1) = %+v, want AIdx=1 Datum.I=8", e)
	}
}
