package ast

import (
	"strconv"
	"strings"

	"github.com/cwbudde/minilang/internal/lexer"
)

// Number is an integer or floating-point literal; IsFloat distinguishes
// which payload field (IntVal/FloatVal) is meaningful.
type Number struct {
	Tok      lexer.Token
	IntVal   int64
	FloatVal float64
	IsFloat  bool
}

func (n *Number) Pos() lexer.Position { return n.Tok.Pos }
func (n *Number) expressionNode()     {}
func (n *Number) String() string {
	if n.IsFloat {
		// Always keep a decimal point and never use an exponent, so the
		// text lexes back as a float literal.
		s := strconv.FormatFloat(n.FloatVal, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatInt(n.IntVal, 10)
}

// String literal (the name clashes with Go's string type, so the node is
// always referred to through the ast package qualifier).
type String struct {
	Tok   lexer.Token
	Value string
}

func (s *String) Pos() lexer.Position { return s.Tok.Pos }
func (s *String) expressionNode()     {}
func (s *String) String() string {
	// Literals have no escapes, so a value holds at most one quote kind;
	// delimit with the other one.
	if strings.Contains(s.Value, `"`) {
		return `'` + s.Value + `'`
	}
	return `"` + s.Value + `"`
}

// True is the boolean literal `true`.
type True struct{ Tok lexer.Token }

func (t *True) Pos() lexer.Position { return t.Tok.Pos }
func (t *True) expressionNode()     {}
func (t *True) String() string      { return "true" }

// False is the boolean literal `false`.
type False struct{ Tok lexer.Token }

func (f *False) Pos() lexer.Position { return f.Tok.Pos }
func (f *False) expressionNode()     {}
func (f *False) String() string      { return "false" }

// Nil is the literal `nil`.
type Nil struct{ Tok lexer.Token }

func (n *Nil) Pos() lexer.Position { return n.Tok.Pos }
func (n *Nil) expressionNode()     {}
func (n *Nil) String() string      { return "nil" }

// Identifier is a bare name reference: a variable, parameter, or function.
type Identifier struct {
	Tok  lexer.Token
	Name string
}

func (i *Identifier) Pos() lexer.Position { return i.Tok.Pos }
func (i *Identifier) expressionNode()     {}
func (i *Identifier) String() string      { return i.Name }

// Array is an array literal `[e1, e2, ...]`.
type Array struct {
	Tok   lexer.Token
	Elems []Expression
}

func (a *Array) Pos() lexer.Position { return a.Tok.Pos }
func (a *Array) expressionNode()     {}
func (a *Array) String() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ArrayAccess is `base[index]`.
type ArrayAccess struct {
	Base  Expression
	Index Expression
	LPos  lexer.Position
}

func (a *ArrayAccess) Pos() lexer.Position { return a.LPos }
func (a *ArrayAccess) expressionNode()     {}
func (a *ArrayAccess) String() string {
	return a.Base.String() + "[" + a.Index.String() + "]"
}

// Call is `callee(args...)`.
type Call struct {
	Callee Expression
	Args   []Expression
	LPos   lexer.Position
}

func (c *Call) Pos() lexer.Position { return c.LPos }
func (c *Call) expressionNode()     {}
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Callee.String() + "(" + strings.Join(parts, ", ") + ")"
}

// BinOpKind enumerates the binary operators; `or`/`and` short-circuit,
// the rest evaluate both operands
type BinOpKind int

const (
	OpOr BinOpKind = iota
	OpAnd
	OpEq
	OpNeq
	OpGt
	OpGe
	OpLt
	OpLe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

var binOpSymbols = map[BinOpKind]string{
	OpOr: "or", OpAnd: "and", OpEq: "==", OpNeq: "!=",
	OpGt: ">", OpGe: ">=", OpLt: "<", OpLe: "<=",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
}

func (k BinOpKind) String() string { return binOpSymbols[k] }

// BinOp is a binary expression `l <kind> r`.
type BinOp struct {
	L, R Expression
	Kind BinOpKind
	OPos lexer.Position
}

func (b *BinOp) Pos() lexer.Position { return b.OPos }
func (b *BinOp) expressionNode()     {}
func (b *BinOp) String() string {
	return "(" + b.L.String() + " " + b.Kind.String() + " " + b.R.String() + ")"
}

// UnaryOpKind enumerates the unary operators.
type UnaryOpKind int

const (
	OpNot UnaryOpKind = iota
	OpNeg
)

func (k UnaryOpKind) String() string {
	if k == OpNot {
		return "!"
	}
	return "-"
}

// UnaryOp is a prefix expression `<kind> child`.
type UnaryOp struct {
	Child Expression
	Kind  UnaryOpKind
	OPos  lexer.Position
}

func (u *UnaryOp) Pos() lexer.Position { return u.OPos }
func (u *UnaryOp) expressionNode()     {}
func (u *UnaryOp) String() string {
	return u.Kind.String() + u.Child.String()
}
