package interp

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/builtins"
	"github.com/cwbudde/minilang/internal/lexer"
	"github.com/cwbudde/minilang/internal/parser"
	"github.com/cwbudde/minilang/internal/semantic"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, errs)
	}
	an := semantic.NewAnalyzer()
	an.SetSource(src, "<test>")
	if err := an.Analyze(prog); err != nil {
		t.Fatalf("analyze error for %q: %v", src, err)
	}
	if errs := an.Errors(); len(errs) > 0 {
		t.Fatalf("semantic errors for %q: %v", src, errs)
	}
	return prog
}

func runSource(t *testing.T, src string) string {
	t.Helper()
	prog := mustParse(t, src)
	var out bytes.Buffer
	host := &builtins.Host{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	ip := New(host)
	if err := ip.Run(prog); err != nil {
		t.Fatalf("Run(%q) error: %v", src, err)
	}
	return out.String()
}

func TestRun_Arithmetic(t *testing.T) {
	if out := runSource(t, `print(1 + 2 * 3);`); out != "7" {
		t.Fatalf("got %q, want %q", out, "7")
	}
}

func TestRun_DivisionPromotesToFloat(t *testing.T) {
	if out := runSource(t, `print(1 / 2);`); out != "0.5" {
		t.Fatalf("got %q, want %q", out, "0.5")
	}
}

func TestRun_FibonacciRecursion(t *testing.T) {
	src := `
	fun fib(n) {
		if (n < 2) { return n; }
		return fib(n - 1) + fib(n - 2);
	}
	print(fib(10));
	`
	if out := runSource(t, src); out != "55" {
		t.Fatalf("got %q, want %q", out, "55")
	}
}

func TestRun_MutualRecursion(t *testing.T) {
	src := `
	fun isEven(n) {
		if (n == 0) { return true; }
		return isOdd(n - 1);
	}
	fun isOdd(n) {
		if (n == 0) { return false; }
		return isEven(n - 1);
	}
	print(isEven(10));
	`
	if out := runSource(t, src); out != "true" {
		t.Fatalf("got %q, want %q", out, "true")
	}
}

func TestRun_ShortCircuitOrSkipsRightOperand(t *testing.T) {
	src := `
	fun sideEffect() {
		print("called");
		return true;
	}
	var x = true or sideEffect();
	print(x);
	`
	out := runSource(t, src)
	if strings.Contains(out, "called") {
		t.Fatalf("or must not evaluate right operand when left is true, got %q", out)
	}
}

func TestRun_WhileLoopWithBreakAndContinue(t *testing.T) {
	src := `
	var i = 0;
	var sum = 0;
	while (i < 10) {
		i = i + 1;
		if (i % 2 == 0) { continue; }
		if (i > 7) { break; }
		sum = sum + i;
	}
	print(sum);
	`
	if out := runSource(t, src); out != "16" {
		t.Fatalf("got %q, want %q", out, "16")
	}
}

func TestRun_ArraysAreMutableByReference(t *testing.T) {
	src := `
	var a = [1, 2, 3];
	var b = a;
	b[0] = 99;
	print(a[0]);
	`
	if out := runSource(t, src); out != "99" {
		t.Fatalf("got %q, want %q", out, "99")
	}
}

func TestRun_ClosuresAreLexicalNotDynamic(t *testing.T) {
	// readShadow is defined at the top level, so it can only ever see global
	// bindings, never a caller's locals, regardless of who calls it.
	src := `
	var shadow = "global";
	fun readShadow() {
		return shadow;
	}
	fun callWithLocalShadow() {
		var shadow = "local";
		return readShadow();
	}
	print(callWithLocalShadow());
	`
	if out := runSource(t, src); out != "global" {
		t.Fatalf("got %q, want %q (lexical scoping)", out, "global")
	}
}

func TestRun_IndexOutOfBoundsIsIndexError(t *testing.T) {
	prog := mustParse(t, `var a = [1, 2]; print(a[5]);`)
	var out bytes.Buffer
	host := &builtins.Host{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	ip := New(host)
	err := ip.Run(prog)
	if err == nil || !strings.Contains(err.Error(), "IndexError") {
		t.Fatalf("expected IndexError, got %v", err)
	}
}
