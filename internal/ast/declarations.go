package ast

import "github.com/cwbudde/minilang/internal/lexer"

// VarDecl declares a variable, optionally with an initializer expression.
// Init is the `var` keyword token. When Expr is nil the variable starts
// out bound to Nil.
type VarDecl struct {
	Init lexer.Token
	Name string
	Expr Expression
}

func (v *VarDecl) Pos() lexer.Position { return v.Init.Pos }
func (v *VarDecl) statementNode()      {}
func (v *VarDecl) String() string {
	if v.Expr == nil {
		return "var " + v.Name + ";"
	}
	return "var " + v.Name + " = " + v.Expr.String() + ";"
}

// FunDecl declares a named function. Params must have unique names.
type FunDecl struct {
	Block  *Block
	Init   lexer.Token
	Name   string
	Params []string
}

func (f *FunDecl) Pos() lexer.Position { return f.Init.Pos }
func (f *FunDecl) statementNode()      {}
func (f *FunDecl) String() string {
	return "fun " + f.Name + "(" + joinStrings(f.Params, ", ") + ") " + f.Block.String()
}

func joinStrings(items []string, sep string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}
