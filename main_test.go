package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runSource(t *testing.T, src string) (int, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.qc")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return runFile(path)
}

func TestRunSumLoop(t *testing.T) {
	code, err := runSource(t, `int main(){ int i,s; s=0; for(i=1;i<=10;i=i+1) s+=i; return s; }`)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if code != 55 {
		t.Fatalf("exit code = %d, want 55", code)
	}
}

func TestRunArrayOfSquares(t *testing.T) {
	code, err := runSource(t, `int main(){ int a[5],i; for(i=0;i<5;i=i+1) a[i]=i*i; return a[4]; }`)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if code != 16 {
		t.Fatalf("exit code = %d, want 16", code)
	}
}

func TestRunRecursiveFibonacci(t *testing.T) {
	code, err := runSource(t, `int f(int n){ if(n<2) return n; return f(n-1)+f(n-2); } int main(){ return f(10); }`)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if code != 55 {
		t.Fatalf("exit code = %d, want 55", code)
	}
}

func TestRunPrintfExitsZero(t *testing.T) {
	code, err := runSource(t, `int main(){ char *s; s="hi\n"; printf("%s", s); return 0; }`)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestRunPointerWriteThrough(t *testing.T) {
	code, err := runSource(t, `int main(){ int x,y; x=7; y=&x; *y=42; return x; }`)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if code != 42 {
		t.Fatalf("exit code = %d, want 42", code)
	}
}

func TestRunLeftShiftLoop(t *testing.T) {
	code, err := runSource(t, `int main(){ int i; i=1; while(i<1000) i<<=1; return i; }`)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if code != 1024 {
		t.Fatalf("exit code = %d, want 1024", code)
	}
}

func TestRunArrayBoundsErrors(t *testing.T) {
	_, err := runSource(t, `int main(){ int a[3]; return a[5]; }`)
	if err == nil {
		t.Fatalf("expected an ARRAY_BOUNDS error, got none")
	}
	if !strings.Contains(err.Error(), "ARRAY_BOUNDS") {
		t.Fatalf("error = %v, want it to name ARRAY_BOUNDS", err)
	}
}

// TestRunInitHookRunsBeforeMain confirms "__init__" is called once, right
// after prescan and before "main" (original_source/qcread.c's
// qc_load_file calls qc_execute("__init__", ...) unconditionally right
// after a successful prescan()).
func TestRunInitHookRunsBeforeMain(t *testing.T) {
	code, err := runSource(t, `int g;
void __init__(){ g=41; }
int main(){ return g+1; }`)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if code != 42 {
		t.Fatalf("exit code = %d, want 42 (g set by __init__ before main ran)", code)
	}
}

// TestRunWithoutInitHookIsANoOp confirms a file defining no "__init__"
// still runs normally.
func TestRunWithoutInitHookIsANoOp(t *testing.T) {
	code, err := runSource(t, `int main(){ return 5; }`)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if code != 5 {
		t.Fatalf("exit code = %d, want 5", code)
	}
}

func TestRunUninitializedReadErrors(t *testing.T) {
	_, err := runSource(t, `int main(){ int x; return x; }`)
	if err == nil {
		t.Fatalf("expected an UNINIT error, got none")
	}
	if !strings.Contains(err.Error(), "UNINIT") {
		t.Fatalf("error = %v, want it to name UNINIT", err)
	}
}
