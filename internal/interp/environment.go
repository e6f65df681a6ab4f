// Package interp implements the tree-walking reference interpreter: a
// direct AST evaluator sharing internal/value and internal/builtins with
// the bytecode VM, used as the semantic ground truth the compiled path
// is checked against.
package interp

import (
	"fmt"

	"github.com/cwbudde/minilang/internal/value"
)

// Environment is a symbol table for variable storage, chained to an
// enclosing scope for lexical lookup. Every function call opens a new
// Environment enclosed by the function's *defining* scope, never by the
// caller's, which is what makes closures lexical rather than dynamic.
type Environment struct {
	store map[string]value.Value
	outer *Environment
}

// NewEnvironment creates a root environment with no outer scope.
func NewEnvironment() *Environment {
	return &Environment{store: map[string]value.Value{}}
}

// NewEnclosedEnvironment creates a scope nested inside outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{store: map[string]value.Value{}, outer: outer}
}

// Get looks up name in this scope, then recursively in enclosing scopes.
func (e *Environment) Get(name string) (value.Value, bool) {
	if v, ok := e.store[name]; ok {
		return v, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return value.Value{}, false
}

// Define binds name to v in the current scope, shadowing any outer
// binding of the same name. Used for `var` declarations.
func (e *Environment) Define(name string, v value.Value) {
	e.store[name] = v
}

// Set updates an existing binding, searching outward through enclosing
// scopes to find where it was defined. Used for assignment. Returns an
// error if name is bound nowhere in the chain — unreachable for a program
// that has already passed semantic analysis.
func (e *Environment) Set(name string, v value.Value) error {
	if _, ok := e.store[name]; ok {
		e.store[name] = v
		return nil
	}
	if e.outer != nil {
		return e.outer.Set(name, v)
	}
	return fmt.Errorf("undefined variable: %s", name)
}
