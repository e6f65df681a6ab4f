package interp

import (
	"fmt"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/builtins"
	"github.com/cwbudde/minilang/internal/value"
)

// Interp walks a Program's AST directly, evaluating it against the same
// runtime Value type and built-in table the bytecode VM uses. It assumes
// the program has already passed the parser and the semantic analyzer.
type Interp struct {
	global *Environment
	env    *Environment
	host   *builtins.Host
	cf     controlFlow
}

// New constructs an Interp whose built-ins read/write through host.
func New(host *builtins.Host) *Interp {
	g := NewEnvironment()
	return &Interp{global: g, env: g, host: host}
}

// Run executes prog's top-level declarations in order. Function
// declarations are registered before any statement runs, in a pre-pass,
// so forward and mutually recursive calls resolve regardless of where in
// the file they're declared.
func (ip *Interp) Run(prog *ast.Program) error {
	for _, decl := range prog.Decls {
		if fd, ok := decl.(*ast.FunDecl); ok {
			fn := &value.FunctionVal{Name: fd.Name, Params: fd.Params, Body: fd.Block, Env: ip.global}
			ip.global.Define(fd.Name, value.FunctionValue(fn))
		}
	}
	for _, decl := range prog.Decls {
		if _, ok := decl.(*ast.FunDecl); ok {
			continue
		}
		if err := ip.execStmt(decl); err != nil {
			return err
		}
	}
	return nil
}

func (ip *Interp) evalCall(c *ast.Call) (value.Value, error) {
	ident, ok := c.Callee.(*ast.Identifier)
	if !ok {
		return value.Value{}, fmt.Errorf("call target must be a named function")
	}

	args := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := ip.evalExpr(a)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}

	if idx, ok := builtins.IndexOf(ident.Name); ok {
		return builtins.Table[idx].Fn(ip.host, args)
	}

	fnVal, ok := ip.env.Get(ident.Name)
	if !ok || fnVal.Type != value.Function {
		return value.Value{}, fmt.Errorf("undefined function: %s", ident.Name)
	}
	return ip.callFunction(fnVal.Fn, args)
}

// callFunction runs fn's body in a fresh scope enclosed by fn's *defining*
// environment, never by the caller's, so closures are lexical rather than
// dynamic.
func (ip *Interp) callFunction(fn *value.FunctionVal, args []value.Value) (value.Value, error) {
	body, _ := fn.Body.(*ast.Block)
	closureEnv, _ := fn.Env.(*Environment)

	callEnv := NewEnclosedEnvironment(closureEnv)
	for i, p := range fn.Params {
		if i < len(args) {
			callEnv.Define(p, args[i])
		} else {
			callEnv.Define(p, value.NilValue())
		}
	}

	savedEnv, savedCf := ip.env, ip.cf
	ip.env, ip.cf = callEnv, controlFlow{}

	err := ip.execBlock(body)

	result := value.NilValue()
	if ip.cf.kind == cfReturn {
		result = ip.cf.returnValue
	}
	ip.env, ip.cf = savedEnv, savedCf

	if err != nil {
		return value.Value{}, err
	}
	return result, nil
}
