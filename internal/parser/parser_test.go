package parser

import (
	"testing"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/lexer"
)

func testParser(input string) *Parser {
	l := lexer.New(input)
	return New(l)
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errs := p.Errors()
	if len(errs) == 0 {
		return
	}
	for _, e := range errs {
		t.Errorf("parser error: %v", e)
	}
	t.FailNow()
}

func TestVarDeclWithInitializer(t *testing.T) {
	p := testParser("var x = 5;")
	prog := p.ParseProgram()
	checkParserErrors(t, p)

	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	decl, ok := prog.Decls[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("expected *ast.VarDecl, got %T", prog.Decls[0])
	}
	if decl.Name != "x" {
		t.Errorf("expected name x, got %q", decl.Name)
	}
	num, ok := decl.Expr.(*ast.Number)
	if !ok || num.IntVal != 5 {
		t.Errorf("expected initializer 5, got %#v", decl.Expr)
	}
}

func TestVarDeclWithoutInitializer(t *testing.T) {
	p := testParser("var x;")
	prog := p.ParseProgram()
	checkParserErrors(t, p)

	decl := prog.Decls[0].(*ast.VarDecl)
	if decl.Expr != nil {
		t.Errorf("expected nil initializer, got %#v", decl.Expr)
	}
}

func TestFunDeclWithParams(t *testing.T) {
	p := testParser("fun add(a, b) { return a + b; }")
	prog := p.ParseProgram()
	checkParserErrors(t, p)

	fd, ok := prog.Decls[0].(*ast.FunDecl)
	if !ok {
		t.Fatalf("expected *ast.FunDecl, got %T", prog.Decls[0])
	}
	if fd.Name != "add" || len(fd.Params) != 2 || fd.Params[0] != "a" || fd.Params[1] != "b" {
		t.Fatalf("unexpected function shape: %#v", fd)
	}
	if len(fd.Block.Stmts) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fd.Block.Stmts))
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3;", "(1 + (2 * 3))"},
		{"(1 + 2) * 3;", "((1 + 2) * 3)"},
		{"1 < 2 == 3 < 4;", "((1 < 2) == (3 < 4))"},
		{"a or b and c;", "(a or (b and c))"},
		{"-1 + 2;", "(-1 + 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := testParser(tt.input)
			prog := p.ParseProgram()
			checkParserErrors(t, p)

			stmt, ok := prog.Decls[0].(*ast.ExprStmt)
			if !ok {
				t.Fatalf("expected *ast.ExprStmt, got %T", prog.Decls[0])
			}
			if got := stmt.Expr.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCallAndIndexChain(t *testing.T) {
	p := testParser("f(1, 2)[0];")
	prog := p.ParseProgram()
	checkParserErrors(t, p)

	stmt := prog.Decls[0].(*ast.ExprStmt)
	access, ok := stmt.Expr.(*ast.ArrayAccess)
	if !ok {
		t.Fatalf("expected outer *ast.ArrayAccess, got %T", stmt.Expr)
	}
	call, ok := access.Base.(*ast.Call)
	if !ok {
		t.Fatalf("expected *ast.Call as base, got %T", access.Base)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 call args, got %d", len(call.Args))
	}
}

func TestForLoopDesugarsToWhile(t *testing.T) {
	p := testParser("for (var i = 0; i < 3; i = i + 1) { print(i); }")
	prog := p.ParseProgram()
	checkParserErrors(t, p)

	block, ok := prog.Decls[0].(*ast.Block)
	if !ok {
		t.Fatalf("expected desugared *ast.Block, got %T", prog.Decls[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("expected init + while, got %d statements", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*ast.VarDecl); !ok {
		t.Errorf("expected first statement to be the init VarDecl, got %T", block.Stmts[0])
	}
	whileStmt, ok := block.Stmts[1].(*ast.While)
	if !ok {
		t.Fatalf("expected second statement to be *ast.While, got %T", block.Stmts[1])
	}
	// Loop body must end with the update statement appended after the
	// original body.
	if len(whileStmt.Body.(*ast.Block).Stmts) != 2 {
		t.Fatalf("expected body + update in while body, got %d statements",
			len(whileStmt.Body.(*ast.Block).Stmts))
	}
}

func TestIfElsifElse(t *testing.T) {
	p := testParser(`
	if (a) { b; } elsif (c) { d; } else { e; }
	`)
	prog := p.ParseProgram()
	checkParserErrors(t, p)

	ifStmt, ok := prog.Decls[0].(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", prog.Decls[0])
	}
	if len(ifStmt.ElifArms) != 1 {
		t.Fatalf("expected 1 elsif arm, got %d", len(ifStmt.ElifArms))
	}
	if ifStmt.ElseArm == nil {
		t.Fatalf("expected an else branch")
	}
}

func TestSyntaxErrorRecoversAtNextStatement(t *testing.T) {
	p := testParser("var = ; var y = 1;")
	prog := p.ParseProgram()

	if len(p.Errors()) == 0 {
		t.Fatalf("expected at least one syntax error")
	}
	// Recovery must still surface the well-formed second declaration.
	found := false
	for _, d := range prog.Decls {
		if vd, ok := d.(*ast.VarDecl); ok && vd.Name == "y" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected parser to recover and still parse `var y = 1;`, decls=%#v", prog.Decls)
	}
}

func TestNegativeNumberLiteralFoldsToSingleNode(t *testing.T) {
	p := testParser("-5;")
	prog := p.ParseProgram()
	checkParserErrors(t, p)

	stmt := prog.Decls[0].(*ast.ExprStmt)
	num, ok := stmt.Expr.(*ast.Number)
	if !ok {
		t.Fatalf("expected folded *ast.Number, got %T", stmt.Expr)
	}
	if num.IntVal != -5 {
		t.Errorf("expected -5, got %d", num.IntVal)
	}
}
