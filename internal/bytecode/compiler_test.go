package bytecode

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

func mustCompile(t *testing.T, src string) *CodeObject {
	t.Helper()
	prog := mustParse(t, src)
	obj, err := Compile(prog)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	return obj
}

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
	obj := mustCompile(t, src)
	var out bytes.Buffer
	host := &builtins.Host{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	vm := New(obj, host)
	if err := vm.Run(); err != nil {
		t.Fatalf("Run(%q) error: %v", src, err)
	}
	return out.String()
}

func TestCompile_MainEndsWithEnd(t *testing.T) {
	obj := mustCompile(t, `var x = 1;`)
	code := obj.Functions[0].Code
	if OpCode(code[len(code)-1]) != OpEnd {
		t.Fatalf("main does not end with OpEnd: last byte 0x%02x", code[len(code)-1])
	}
}

func TestCompile_BIPushForSmallIntLiteral(t *testing.T) {
	obj := mustCompile(t, `var x = 5;`)
	code := obj.Functions[0].Code
	if OpCode(code[0]) != OpBIPush {
		t.Fatalf("expected BIPUSH for small literal, got %s", OpCode(code[0]))
	}
}

func TestCompile_LoadConstForLargeIntLiteral(t *testing.T) {
	obj := mustCompile(t, `var x = 1000;`)
	if len(obj.Constants) != 1 || obj.Constants[0].Int != 1000 {
		t.Fatalf("expected constant pool entry for 1000, got %+v", obj.Constants)
	}
}

func TestCompile_FunctionEndsWithReturn(t *testing.T) {
	obj := mustCompile(t, `fun f() { var x = 1; }`)
	fnCode := obj.Functions[1].Code
	last := OpCode(fnCode[len(fnCode)-1])
	if last != OpReturnValue {
		t.Fatalf("function body does not end with RETURN_VALUE, got %s", last)
	}
}

func TestCompile_AndOrUseJumpsNotBinaryOpcode(t *testing.T) {
	obj := mustCompile(t, `var x = true and false; var y = true or false;`)
	code := obj.Functions[0].Code
	for i := 0; i < len(code); i++ {
		op := OpCode(code[i])
		if op == OpBinaryAnd || op == OpBinaryOr {
			t.Fatalf("compiler must not emit %s for and/or short-circuit operators", op)
		}
	}
}

func TestRun_Arithmetic(t *testing.T) {
	out := runSource(t, `print(1 + 2 * 3);`)
	if out != "7" {
		t.Fatalf("got %q, want %q", out, "7")
	}
}

func TestRun_DivisionPromotesToFloat(t *testing.T) {
	out := runSource(t, `print(1 / 2);`)
	if out != "0.5" {
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
	out := runSource(t, src)
	if out != "55" {
		t.Fatalf("got %q, want %q", out, "55")
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
	if !strings.HasSuffix(out, "true") {
		t.Fatalf("expected final print of true, got %q", out)
	}
}

func TestRun_ShortCircuitAndSkipsRightOperand(t *testing.T) {
	src := `
	fun sideEffect() {
		print("called");
		return true;
	}
	var x = false and sideEffect();
	print(x);
	`
	out := runSource(t, src)
	if strings.Contains(out, "called") {
		t.Fatalf("and must not evaluate right operand when left is false, got %q", out)
	}
	if !strings.HasSuffix(out, "false") {
		t.Fatalf("expected final print of false, got %q", out)
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
	out := runSource(t, src)
	if out != "16" {
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
	out := runSource(t, src)
	if out != "99" {
		t.Fatalf("got %q, want %q", out, "99")
	}
}

func TestRun_IndexOutOfBounds(t *testing.T) {
	obj := mustCompile(t, `var a = [1, 2]; print(a[5]);`)
	var out bytes.Buffer
	host := &builtins.Host{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	vm := New(obj, host)
	err := vm.Run()
	if err == nil {
		t.Fatalf("expected an IndexError, got nil")
	}
	if !strings.Contains(err.Error(), "IndexError") {
		t.Fatalf("expected IndexError, got %v", err)
	}
}

func TestRun_DivisionByZero(t *testing.T) {
	obj := mustCompile(t, `print(1 / 0);`)
	var out bytes.Buffer
	host := &builtins.Host{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	vm := New(obj, host)
	err := vm.Run()
	if err == nil || !strings.Contains(err.Error(), "ZeroDivisionError") {
		t.Fatalf("expected ZeroDivisionError, got %v", err)
	}
}
