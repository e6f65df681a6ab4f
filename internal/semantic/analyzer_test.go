package semantic

import (
	"testing"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/lexer"
	"github.com/cwbudde/minilang/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, errs)
	}
	return prog
}

func analyze(t *testing.T, src string) *Analyzer {
	t.Helper()
	prog := mustParse(t, src)
	a := NewAnalyzer()
	a.SetSource(src, "<test>")
	a.Analyze(prog)
	return a
}

func TestValidProgramHasNoDiagnostics(t *testing.T) {
	a := analyze(t, `
	var x = 1;
	fun add(a, b) { return a + b; }
	print(add(x, 2));
	`)
	if errs := a.Errors(); len(errs) != 0 {
		t.Fatalf("expected no diagnostics, got %v", errs)
	}
}

func TestUndefinedIdentifierIsNameError(t *testing.T) {
	a := analyze(t, "print(y);")
	errs := a.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", errs)
	}
	if string(errs[0].Kind) != "NameError" {
		t.Errorf("expected NameError, got %s", errs[0].Kind)
	}
}

func TestDuplicateDeclarationInSameScopeIsNameError(t *testing.T) {
	a := analyze(t, "var x = 1; var x = 2;")
	errs := a.Errors()
	if len(errs) != 1 || string(errs[0].Kind) != "NameError" {
		t.Fatalf("expected 1 NameError, got %v", errs)
	}
}

func TestShadowingInNestedScopeIsAllowed(t *testing.T) {
	a := analyze(t, `
	var x = 1;
	fun f() { var x = 2; return x; }
	`)
	if errs := a.Errors(); len(errs) != 0 {
		t.Fatalf("expected shadowing to be allowed, got %v", errs)
	}
}

func TestWrongArityCallIsTypeError(t *testing.T) {
	a := analyze(t, `
	fun add(a, b) { return a + b; }
	add(1);
	`)
	errs := a.Errors()
	if len(errs) != 1 || string(errs[0].Kind) != "TypeError" {
		t.Fatalf("expected 1 TypeError for arity mismatch, got %v", errs)
	}
}

func TestCallingNonFunctionIsTypeError(t *testing.T) {
	a := analyze(t, `
	var x = 1;
	x();
	`)
	errs := a.Errors()
	if len(errs) != 1 || string(errs[0].Kind) != "TypeError" {
		t.Fatalf("expected 1 TypeError, got %v", errs)
	}
}

func TestBreakOutsideLoopIsRejected(t *testing.T) {
	a := analyze(t, "break;")
	if errs := a.Errors(); len(errs) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", errs)
	}
}

func TestContinueInsideLoopIsAllowed(t *testing.T) {
	a := analyze(t, "while (true) { continue; }")
	if errs := a.Errors(); len(errs) != 0 {
		t.Fatalf("expected no diagnostics, got %v", errs)
	}
}

func TestArithmeticTypeMismatchIsReported(t *testing.T) {
	a := analyze(t, `print("x" + 1);`)
	errs := a.Errors()
	if len(errs) != 1 || string(errs[0].Kind) != "TypeError" {
		t.Fatalf("expected 1 TypeError, got %v", errs)
	}
}

func TestStringConcatenationIsAllowed(t *testing.T) {
	a := analyze(t, `var s = "a" + "b"; print(s);`)
	if errs := a.Errors(); len(errs) != 0 {
		t.Fatalf("expected string concatenation to be allowed, got %v", errs)
	}
}

func TestSubscriptingANonArrayIsReported(t *testing.T) {
	a := analyze(t, `print(1[0]);`)
	errs := a.Errors()
	if len(errs) != 1 || string(errs[0].Kind) != "TypeError" {
		t.Fatalf("expected 1 TypeError, got %v", errs)
	}
}

func TestMutuallyRecursiveFunctionsResolve(t *testing.T) {
	// isEven calls isOdd before isOdd's declaration is reached: only a
	// pre-pass that registers every top-level function ahead of time
	// resolves this.
	a := analyze(t, `
	fun isEven(n) { return isOdd(n); }
	fun isOdd(n) { return isEven(n); }
	`)
	if errs := a.Errors(); len(errs) != 0 {
		t.Fatalf("expected forward references to resolve, got %v", errs)
	}
}

func TestVarDeclWithFunctionValuedInitializerIsTypeError(t *testing.T) {
	a := analyze(t, `
	fun f() { return 1; }
	var g = f;
	`)
	errs := a.Errors()
	if len(errs) != 1 || string(errs[0].Kind) != "TypeError" {
		t.Fatalf("expected 1 TypeError for a function-valued var initializer, got %v", errs)
	}
}

func TestDuplicateTopLevelFunctionIsNameError(t *testing.T) {
	a := analyze(t, `
	fun f() { return 1; }
	fun f() { return 2; }
	`)
	errs := a.Errors()
	if len(errs) != 1 || string(errs[0].Kind) != "NameError" {
		t.Fatalf("expected 1 NameError for duplicate function, got %v", errs)
	}
}
