// Package value defines the runtime Value type shared by both execution
// back-ends: the tree-walking interpreter and the bytecode VM operate on
// the exact same tagged union, so truthiness, printable form, and
// arithmetic/comparison semantics only need to be implemented once.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the tag of a Value's variant.
type Type byte

const (
	Nil Type = iota
	Int
	Float
	Bool
	String
	Array
	Function
)

func (t Type) String() string {
	switch t {
	case Nil:
		return "nil"
	case Int, Float:
		return "number"
	case Bool:
		return "boolean"
	case String:
		return "string"
	case Array:
		return "array"
	case Function:
		return "function"
	default:
		return "unknown"
	}
}

// IsNumber reports whether t is either numeric variant.
func (t Type) IsNumber() bool { return t == Int || t == Float }

// ArrayVal is the backing store for an Array value. Arrays are mutable
// and shared by reference: two Values holding the same *ArrayVal observe
// each other's mutations.
type ArrayVal struct {
	Elems []Value
}

// FunctionVal describes a callable. Only the tree-walker builds one: it
// sets Body (and Env, for its closure). The VM calls functions by their
// compiled function-pool index and does not create FunctionVals, so
// CodeIndex is never set.
type FunctionVal struct {
	Name      string
	Params    []string
	Body      any // *ast.Block; declared as any to avoid an import cycle
	Env       any // *interp.Environment; see Body
	CodeIndex int
}

// Value is the tagged union of every runtime value kind minilang has.
type Value struct {
	Arr   *ArrayVal
	Fn    *FunctionVal
	Str   string
	Int   int64
	Float float64
	Type  Type
	Bool  bool
}

func NilValue() Value                    { return Value{Type: Nil} }
func IntValue(i int64) Value             { return Value{Type: Int, Int: i} }
func FloatValue(f float64) Value         { return Value{Type: Float, Float: f} }
func BoolValue(b bool) Value             { return Value{Type: Bool, Bool: b} }
func StringValue(s string) Value         { return Value{Type: String, Str: s} }
func ArrayValue(a *ArrayVal) Value       { return Value{Type: Array, Arr: a} }
func FunctionValue(f *FunctionVal) Value { return Value{Type: Function, Fn: f} }

// Truthy implements the exhaustive coercion rule to bool used by `if`,
// `while`, and the short-circuit operators.
func (v Value) Truthy() bool {
	switch v.Type {
	case Nil:
		return false
	case Bool:
		return v.Bool
	case Int:
		return v.Int != 0
	case Float:
		return v.Float != 0
	case String:
		return v.Str != ""
	case Array:
		return len(v.Arr.Elems) != 0
	case Function:
		return false
	default:
		return false
	}
}

// AsFloat64 returns the numeric value as a float64. It must only be
// called on Int or Float values.
func (v Value) AsFloat64() float64 {
	if v.Type == Int {
		return float64(v.Int)
	}
	return v.Float
}

// Repr renders v the way it appears nested inside another value (e.g. an
// array element): strings are quoted.
func (v Value) Repr() string {
	switch v.Type {
	case Nil:
		return "nil"
	case Bool:
		if v.Bool {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case String:
		return `"` + v.Str + `"`
	case Array:
		parts := make([]string, len(v.Arr.Elems))
		for i, el := range v.Arr.Elems {
			parts[i] = el.Repr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Function:
		name := v.Fn.Name
		if name == "" {
			name = "<anonymous>"
		}
		return fmt.Sprintf("<function %s: %s>", name, strings.Join(v.Fn.Params, ", "))
	default:
		return "<?>"
	}
}

// Display renders v the way print/println/str() show it: strings are
// unquoted, everything else is identical to Repr.
func (v Value) Display() string {
	if v.Type == String {
		return v.Str
	}
	return v.Repr()
}
