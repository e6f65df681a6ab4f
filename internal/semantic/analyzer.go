// Package semantic implements the single-pass semantic analyzer:
// scoped symbol resolution plus shallow type tags. It never aborts on
// the first diagnostic, so a run always reports every error it can find
// in one pass.
package semantic

import (
	"fmt"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/errors"
	"github.com/cwbudde/minilang/internal/lexer"
)

// builtinArity is the arity table for the host-injected functions.
// The compiler and VM share these names and indices.
var builtinArity = map[string]int{
	"print":     1,
	"println":   1,
	"input":     1,
	"len":       1,
	"int":       1,
	"str":       1,
	"isinteger": 1,
}

var builtinTypeNames = []string{"int", "float", "double", "string"}

// Analyzer walks an analyzed Program, accumulating diagnostics.
type Analyzer struct {
	scope     *SymbolTable
	errs      []*errors.Diagnostic
	source    string
	file      string
	loopDepth int
}

// NewAnalyzer creates an Analyzer with a global scope seeded with the
// builtin type names and the builtin function table.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{scope: NewSymbolTable()}
	a.seedGlobals()
	return a
}

// SetSource attaches the original source text and file name so reported
// diagnostics can carry a source-line excerpt.
func (a *Analyzer) SetSource(source, file string) {
	a.source = source
	a.file = file
}

func (a *Analyzer) seedGlobals() {
	// Builtin function arity must agree with the VM's builtin dispatch
	// table (internal/builtins). Functions are defined before the type
	// names so that `int`, which is both, resolves to the callable builtin.
	for _, name := range []string{"print", "println", "input", "len", "int", "str", "isinteger"} {
		a.scope.DefineLocal(&Symbol{Name: name, Kind: SymFunction, Arity: builtinArity[name]})
	}
	for _, name := range builtinTypeNames {
		a.scope.DefineLocal(&Symbol{Name: name, Kind: SymType})
	}
}

// Errors returns every diagnostic collected during Analyze.
func (a *Analyzer) Errors() []*errors.Diagnostic { return a.errs }

func (a *Analyzer) report(kind errors.Kind, pos lexer.Position, format string, args ...any) {
	d := errors.New(kind, fmt.Sprintf(format, args...), pos)
	d.Source = a.source
	d.File = a.file
	a.errs = append(a.errs, d)
}

// Analyze walks the program and returns an error summarizing the
// diagnostic count when any were raised; individual diagnostics are
// available via Errors().
func (a *Analyzer) Analyze(prog *ast.Program) error {
	// Pre-pass: register every top-level function's name and arity before
	// analyzing any body, so forward and mutually recursive calls resolve
	// regardless of declaration order — matching the compiler's and
	// interpreter's own two-pass handling of the same programs.
	for _, decl := range prog.Decls {
		if fd, ok := decl.(*ast.FunDecl); ok {
			sym := &Symbol{Name: fd.Name, Kind: SymFunction, Arity: len(fd.Params)}
			if !a.scope.DefineLocal(sym) {
				a.report(errors.NameError, fd.Pos(), "'%s' is already declared in this scope", fd.Name)
			}
		}
	}
	for _, decl := range prog.Decls {
		if fd, ok := decl.(*ast.FunDecl); ok {
			a.analyzeFunBody(fd)
			continue
		}
		a.analyzeStmt(decl)
	}
	if len(a.errs) > 0 {
		return fmt.Errorf("semantic analysis failed with %d error(s)", len(a.errs))
	}
	return nil
}

func (a *Analyzer) pushScope() {
	a.scope = NewEnclosedSymbolTable(a.scope)
}

func (a *Analyzer) popScope() {
	a.scope = a.scope.outer
}

func (a *Analyzer) analyzeStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		a.analyzeVarDecl(s)
	case *ast.FunDecl:
		a.analyzeFunDecl(s)
	case *ast.Block:
		a.pushScope()
		for _, inner := range s.Stmts {
			a.analyzeStmt(inner)
		}
		a.popScope()
	case *ast.Assign:
		a.analyzeAssign(s)
	case *ast.If:
		a.analyzeConditionalArm(s.IfArm)
		for _, arm := range s.ElifArms {
			a.analyzeConditionalArm(arm)
		}
		if s.ElseArm != nil {
			a.analyzeStmt(s.ElseArm)
		}
	case *ast.While:
		a.analyzeExpr(s.Cond)
		a.loopDepth++
		a.analyzeStmt(s.Body)
		a.loopDepth--
	case *ast.Return:
		if s.Expr != nil {
			tag := a.analyzeExpr(s.Expr)
			if tag == TagFunction {
				a.report(errors.TypeError, s.Pos(), "cannot return a function value")
			}
		}
	case *ast.Continue:
		if a.loopDepth == 0 {
			a.report(errors.TypeError, s.Pos(), "'continue' used outside of a loop")
		}
	case *ast.Break:
		if a.loopDepth == 0 {
			a.report(errors.TypeError, s.Pos(), "'break' used outside of a loop")
		}
	case *ast.ExprStmt:
		a.analyzeExpr(s.Expr)
	}
}

func (a *Analyzer) analyzeConditionalArm(arm *ast.ConditionalArm) {
	a.analyzeExpr(arm.Cond)
	a.analyzeStmt(arm.Body)
}

func (a *Analyzer) analyzeVarDecl(v *ast.VarDecl) {
	if v.Expr != nil {
		if tag := a.analyzeExpr(v.Expr); tag == TagFunction {
			a.report(errors.TypeError, v.Pos(), "cannot assign a function value")
		}
	}
	sym := &Symbol{Name: v.Name, Kind: SymVariable}
	if !a.scope.DefineLocal(sym) {
		a.report(errors.NameError, v.Pos(), "'%s' is already declared in this scope", v.Name)
	}
}

// analyzeFunDecl handles a function declaration reached in a scope where
// no pre-pass has already registered its symbol (any non-top-level
// position, since Analyze's pre-pass only covers prog.Decls).
func (a *Analyzer) analyzeFunDecl(f *ast.FunDecl) {
	sym := &Symbol{Name: f.Name, Kind: SymFunction, Arity: len(f.Params)}
	if !a.scope.DefineLocal(sym) {
		a.report(errors.NameError, f.Pos(), "'%s' is already declared in this scope", f.Name)
	}
	a.analyzeFunBody(f)
}

// analyzeFunBody analyzes f's parameters and statements without touching
// f's own symbol, which the caller has already defined (either via the
// top-level pre-pass in Analyze, or just above in analyzeFunDecl).
func (a *Analyzer) analyzeFunBody(f *ast.FunDecl) {
	a.pushScope()
	seen := make(map[string]bool, len(f.Params))
	for _, param := range f.Params {
		if seen[param] {
			a.report(errors.NameError, f.Pos(), "duplicate parameter name '%s'", param)
			continue
		}
		seen[param] = true
		a.scope.DefineLocal(&Symbol{Name: param, Kind: SymVariable})
	}
	savedLoopDepth := a.loopDepth
	a.loopDepth = 0
	for _, inner := range f.Block.Stmts {
		a.analyzeStmt(inner)
	}
	a.loopDepth = savedLoopDepth
	a.popScope()
}

func (a *Analyzer) analyzeAssign(asn *ast.Assign) {
	switch lv := asn.Lvalue.(type) {
	case *ast.Identifier:
		if _, ok := a.scope.Resolve(lv.Name); !ok {
			a.report(errors.NameError, lv.Pos(), "undefined identifier '%s'", lv.Name)
		}
	case *ast.ArrayAccess:
		a.analyzeExpr(lv)
	}

	rtag := a.analyzeExpr(asn.Expr)
	if rtag == TagFunction {
		a.report(errors.TypeError, asn.Pos(), "cannot assign a function value")
	}
}

// analyzeExpr infers and returns the shallow Tag for e, reporting any
// diagnostics encountered along the way.
func (a *Analyzer) analyzeExpr(e ast.Expression) Tag {
	switch x := e.(type) {
	case *ast.Number:
		return TagNumber
	case *ast.String:
		return TagString
	case *ast.True, *ast.False:
		return TagBoolean
	case *ast.Nil:
		return TagNil
	case *ast.Identifier:
		return a.analyzeIdentifier(x)
	case *ast.Array:
		for _, el := range x.Elems {
			a.analyzeExpr(el)
		}
		return TagArray
	case *ast.ArrayAccess:
		return a.analyzeArrayAccess(x)
	case *ast.Call:
		return a.analyzeCall(x)
	case *ast.BinOp:
		return a.analyzeBinOp(x)
	case *ast.UnaryOp:
		return a.analyzeUnaryOp(x)
	}
	return TagIdentifier
}

func (a *Analyzer) analyzeIdentifier(id *ast.Identifier) Tag {
	sym, ok := a.scope.Resolve(id.Name)
	if !ok {
		a.report(errors.NameError, id.Pos(), "undefined identifier '%s'", id.Name)
		return TagIdentifier
	}
	switch sym.Kind {
	case SymFunction:
		return TagFunction
	case SymVariable:
		return TagVariable
	default:
		return TagIdentifier
	}
}

func (a *Analyzer) analyzeArrayAccess(aa *ast.ArrayAccess) Tag {
	baseTag := a.analyzeExpr(aa.Base)
	a.analyzeExpr(aa.Index)
	if !baseTag.subscriptable() {
		a.report(errors.TypeError, aa.Pos(), "cannot subscript a value of type %s", baseTag)
	}
	return TagVariable
}

func (a *Analyzer) analyzeCall(c *ast.Call) Tag {
	for _, arg := range c.Args {
		a.analyzeExpr(arg)
	}

	ident, ok := c.Callee.(*ast.Identifier)
	if !ok {
		tag := a.analyzeExpr(c.Callee)
		if !tag.deferred() && tag != TagFunction {
			a.report(errors.TypeError, c.Pos(), "value of type %s is not callable", tag)
		}
		return TagCall
	}

	sym, found := a.scope.Resolve(ident.Name)
	if !found {
		a.report(errors.NameError, c.Pos(), "undefined identifier '%s'", ident.Name)
		return TagCall
	}
	if sym.Kind != SymFunction {
		a.report(errors.TypeError, c.Pos(), "'%s' is not callable", ident.Name)
		return TagCall
	}
	if len(c.Args) != sym.Arity {
		a.report(errors.TypeError, c.Pos(), "'%s' expects %d argument(s), got %d", ident.Name, sym.Arity, len(c.Args))
	}
	return TagCall
}

func (a *Analyzer) analyzeBinOp(b *ast.BinOp) Tag {
	lt := a.analyzeExpr(b.L)
	rt := a.analyzeExpr(b.R)

	if lt == TagFunction || rt == TagFunction {
		a.report(errors.TypeError, b.Pos(), "function value used in an expression")
	}

	switch b.Kind {
	case ast.OpOr, ast.OpAnd, ast.OpEq, ast.OpNeq, ast.OpGt, ast.OpGe, ast.OpLt, ast.OpLe:
		return TagBoolean
	default: // arithmetic: + - * / %
		if !lt.deferred() && !rt.deferred() && lt != rt {
			if !(b.Kind == ast.OpAdd && lt == TagString && rt == TagString) {
				a.report(errors.TypeError, b.Pos(), "type mismatch in arithmetic expression: %s vs %s", lt, rt)
			}
		}
		if lt == TagString || rt == TagString {
			return TagString
		}
		return TagNumber
	}
}

func (a *Analyzer) analyzeUnaryOp(u *ast.UnaryOp) Tag {
	tag := a.analyzeExpr(u.Child)
	if tag == TagFunction {
		a.report(errors.TypeError, u.Pos(), "function value used in an expression")
	}
	if u.Kind == ast.OpNot {
		return TagBoolean
	}
	return TagNumber
}
