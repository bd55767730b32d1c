package symtab

import "testing"

func TestInternStringAndStringAt(t *testing.T) {
	ns := NewNamespace("t.qc")
	idx, ok := ns.InternString("hi\n", 10, 16)
	if !ok {
		t.Fatalf("InternString failed unexpectedly")
	}
	got, ok := ns.StringAt(10)
	if !ok || got != idx {
		t.Fatalf("StringAt(10) = %d, %v, want %d, true", got, ok, idx)
	}
	if ns.Strings[idx].Decoded != "hi\n" {
		t.Fatalf("Strings[%d].Decoded = %q, want %q", idx, ns.Strings[idx].Decoded, "hi\n")
	}
}

func TestInternStringRejectsOversizeLiteral(t *testing.T) {
	ns := NewNamespace("t.qc")
	huge := make([]byte, MaxStringLen+1)
	_, ok := ns.InternString(string(huge), 0, len(huge)+2)
	if ok {
		t.Fatalf("InternString accepted a literal longer than MaxStringLen")
	}
}

func TestInternStringRejectsTooMany(t *testing.T) {
	ns := NewNamespace("t.qc")
	for i := 0; i < MaxStrings; i++ {
		if _, ok := ns.InternString("s", i, i+3); !ok {
			t.Fatalf("InternString #%d unexpectedly rejected", i)
		}
	}
	if _, ok := ns.InternString("one too many", MaxStrings, MaxStrings+3); ok {
		t.Fatalf("InternString accepted a literal past MaxStrings")
	}
}
