package symtab

import "testing"

func TestTableInsertLookup(t *testing.T) {
	tbl := NewTable[Variable](71)
	tbl.Insert("x", &Variable{Name: "x"})
	tbl.Insert("y", &Variable{Name: "y"})

	v, ok := tbl.Lookup("x")
	if !ok || v.Name != "x" {
		t.Fatalf("Lookup(x) = %+v, %v", v, ok)
	}
	if _, ok := tbl.Lookup("z"); ok {
		t.Fatalf("Lookup(z) found a variable that was never inserted")
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
}

// TestTableHashCollisionChains confirms two names landing in the same
// bucket are both still reachable by exact name, not just by hash.
func TestTableHashCollisionChains(t *testing.T) {
	tbl := NewTable[Variable](1) // one bucket: every name collides
	tbl.Insert("a", &Variable{Name: "a"})
	tbl.Insert("b", &Variable{Name: "b"})
	tbl.Insert("c", &Variable{Name: "c"})

	for _, name := range []string{"a", "b", "c"} {
		v, ok := tbl.Lookup(name)
		if !ok || v.Name != name {
			t.Fatalf("Lookup(%q) = %+v, %v", name, v, ok)
		}
	}
}

func TestTableClearEmptiesEveryBucket(t *testing.T) {
	tbl := NewTable[Variable](71)
	tbl.Insert("x", &Variable{Name: "x"})
	tbl.Clear()
	if tbl.Len() != 0 {
		t.Fatalf("Len() after Clear() = %d, want 0", tbl.Len())
	}
	if _, ok := tbl.Lookup("x"); ok {
		t.Fatalf("Lookup(x) succeeded after Clear()")
	}
}

func TestHashIsDeterministic(t *testing.T) {
	if Hash("main") != Hash("main") {
		t.Fatalf("Hash is not deterministic")
	}
}

func TestTableEachVisitsEveryEntry(t *testing.T) {
	tbl := NewTable[Variable](71)
	want := map[string]bool{"a": true, "b": true, "c": true}
	for name := range want {
		tbl.Insert(name, &Variable{Name: name})
	}
	seen := map[string]bool{}
	tbl.Each(func(name string, v *Variable) { seen[name] = true })
	if len(seen) != len(want) {
		t.Fatalf("Each visited %d entries, want %d", len(seen), len(want))
	}
}
