// Package symtab implements QC's symbol tables (spec.md §3, §4.8): the
// Variable and Function descriptors, the per-file Namespace container, and
// the hash tables that hold them.
//
// Grounded on the struct layouts in the original qc.h (Variable, Function,
// Namespace) and on §4.8's hashing rule. The original's "bucket slot holds
// the first record in-place, collisions chain off it" representation is
// replaced, per the §9 redesign note, with a uniform chain of heap nodes
// per bucket and a distinct "bucket empty" state — a plain slice of
// pointers rather than the original's special -1 hash sentinel.
package symtab

import "qc/atom"

// Variable flag bits (spec.md §3).
const (
	FlagInitialized = 0x01
	FlagConst       = 0x02
	FlagArray       = 0x04
)

// Variable is QC's variable descriptor. The original ID_LEN cap of 31
// bytes is recorded as IDLen, but names are not length-checked at
// declaration time in prescan/block.
type Variable struct {
	Name  string
	Flags uint8

	// AIdx/ASize: for an array, this variable's index within it and the
	// array's total size. Scalars have AIdx=0, ASize=1.
	AIdx  int
	ASize int

	// Datum holds the variable's own value when it is a scalar, or when it
	// is element AIdx of a local array (locals expand inline as ASize
	// consecutive Variable slots on the local stack, §3 invariant).
	Datum atom.Atom

	// Array backs a *global* array variable: one Atom per element. Locals
	// never populate this; they use the contiguous-stack-slot convention
	// instead (§9 redesign note: "uniformly use v_array for globals").
	Array []atom.Atom

	Hash uint64
}

// IsInitialized reports whether the variable has been written at least
// once.
func (v *Variable) IsInitialized() bool { return v.Flags&FlagInitialized != 0 }

// IsArray reports whether the variable was declared as an array.
func (v *Variable) IsArray() bool { return v.Flags&FlagArray != 0 }

// IsConst reports whether the variable was declared const.
func (v *Variable) IsConst() bool { return v.Flags&FlagConst != 0 }

// MarkInitialized sets the initialized flag; Store and declaration-with-
// initializer both call this.
func (v *Variable) MarkInitialized() { v.Flags |= FlagInitialized }

// Elem returns the Variable descriptor for index i of an array variable:
// for a global, it's a synthetic per-element view backed by Array[i]; for
// a local, Elem returns v itself: local elements are reached through a
// VarRef over the contiguous stack run (see machine.Machine.LookupVarRef).
func (v *Variable) Elem(i int) *Variable {
	if v.Array != nil {
		return &Variable{
			Name:  v.Name,
			Flags: v.Flags,
			AIdx:  i,
			ASize: v.ASize,
			Datum: v.Array[i],
		}
	}
	return v
}

// VarRef adapts a *Variable (or an element within a global array) into the
// atom.Ref interface the value engine uses for pointer loads/stores and for
// index-stepped pointer arithmetic, without atom needing to import symtab.
type VarRef struct {
	// Array, when non-nil, is the backing slice for a global array
	// variable; Index selects the element this ref currently points to.
	Array *[]atom.Atom
	Index int

	// Scalar, when Array and Locals are nil, is the single Variable this
	// ref points to directly (a namespace or global scalar); Index is not
	// consulted for it.
	Scalar *Variable

	// Locals, when non-nil, is the contiguous run of local stack slots
	// backing a local array; Index selects which slot.
	Locals *[]Variable
}

// Load reads the Atom this ref currently addresses.
func (r *VarRef) Load() atom.Atom {
	switch {
	case r.Array != nil:
		return (*r.Array)[r.Index]
	case r.Locals != nil:
		return (*r.Locals)[r.Index].Datum
	default:
		return r.Scalar.Datum
	}
}

// Store writes v into whatever this ref currently addresses, marking it
// initialized.
func (r *VarRef) Store(v atom.Atom) {
	switch {
	case r.Array != nil:
		(*r.Array)[r.Index] = v
	case r.Locals != nil:
		slot := &(*r.Locals)[r.Index]
		slot.Datum = v
		slot.MarkInitialized()
	default:
		r.Scalar.Datum = v
		r.Scalar.MarkInitialized()
	}
}

// Advance returns a new ref stepped by delta elements, implementing the
// index-addressed pointer arithmetic atom.Add/atom.Sub rely on (see
// DESIGN.md Open Question 1: "&a[i]" and "p+i" must land on the same ref).
func (r *VarRef) Advance(delta int64) any {
	next := *r
	next.Index += int(delta)
	return &next
}
