package value

import (
	"fmt"
	"math"
)

// OpError is a runtime error raised while evaluating an operation on
// Values. The Kind string matches one of the diagnostic taxonomy names
// (TypeError, ZeroDivisionError, IndexError, ValueError); the caller
// attaches a source position when converting it to a diagnostic.
type OpError struct {
	Kind    string
	Message string
}

func (e *OpError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func typeErr(format string, args ...any) error {
	return &OpError{Kind: "TypeError", Message: fmt.Sprintf(format, args...)}
}

// Add implements `+`: numeric addition, or string concatenation when
// both operands are strings.
func Add(a, b Value) (Value, error) {
	if a.Type == String && b.Type == String {
		return StringValue(a.Str + b.Str), nil
	}
	if !a.Type.IsNumber() || !b.Type.IsNumber() {
		return Value{}, typeErr("unsupported operand types for +: %s and %s", a.Type, b.Type)
	}
	if a.Type == Int && b.Type == Int {
		return IntValue(a.Int + b.Int), nil
	}
	return FloatValue(a.AsFloat64() + b.AsFloat64()), nil
}

func arithmetic(name string, a, b Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (Value, error) {
	if !a.Type.IsNumber() || !b.Type.IsNumber() {
		return Value{}, typeErr("unsupported operand types for %s: %s and %s", name, a.Type, b.Type)
	}
	if a.Type == Int && b.Type == Int {
		return IntValue(intOp(a.Int, b.Int)), nil
	}
	return FloatValue(floatOp(a.AsFloat64(), b.AsFloat64())), nil
}

func Sub(a, b Value) (Value, error) {
	return arithmetic("-", a, b,
		func(x, y int64) int64 { return x - y },
		func(x, y float64) float64 { return x - y })
}

func Mul(a, b Value) (Value, error) {
	return arithmetic("*", a, b,
		func(x, y int64) int64 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div implements `/`. Division always promotes to double
// ("1/2 yields 0.5"), even when both operands are integers.
func Div(a, b Value) (Value, error) {
	if !a.Type.IsNumber() || !b.Type.IsNumber() {
		return Value{}, typeErr("unsupported operand types for /: %s and %s", a.Type, b.Type)
	}
	if b.AsFloat64() == 0 {
		return Value{}, &OpError{Kind: "ZeroDivisionError", Message: "division by zero"}
	}
	return FloatValue(a.AsFloat64() / b.AsFloat64()), nil
}

// Mod implements `%`.
func Mod(a, b Value) (Value, error) {
	if !a.Type.IsNumber() || !b.Type.IsNumber() {
		return Value{}, typeErr("unsupported operand types for %%: %s and %s", a.Type, b.Type)
	}
	if b.AsFloat64() == 0 {
		return Value{}, &OpError{Kind: "ZeroDivisionError", Message: "modulo by zero"}
	}
	if a.Type == Int && b.Type == Int {
		return IntValue(a.Int % b.Int), nil
	}
	return FloatValue(math.Mod(a.AsFloat64(), b.AsFloat64())), nil
}

// comparable reports whether t can participate in `==`/`!=`: only
// {Nil, Number, Boolean, String} are comparable; everything else raises
// TypeError.
func comparable(t Type) bool {
	return t == Nil || t.IsNumber() || t == Bool || t == String
}

// Equal implements `==`.
func Equal(a, b Value) (bool, error) {
	if !comparable(a.Type) || !comparable(b.Type) {
		return false, typeErr("cannot compare %s and %s", a.Type, b.Type)
	}
	if a.Type.IsNumber() && b.Type.IsNumber() {
		return a.AsFloat64() == b.AsFloat64(), nil
	}
	if a.Type != b.Type {
		return false, nil
	}
	switch a.Type {
	case Nil:
		return true, nil
	case Bool:
		return a.Bool == b.Bool, nil
	case String:
		return a.Str == b.Str, nil
	}
	return false, nil
}

// Compare implements `<`, `<=`, `>`, `>=`, which are numeric-only.
func Compare(a, b Value) (int, error) {
	if !a.Type.IsNumber() || !b.Type.IsNumber() {
		return 0, typeErr("unsupported operand types for comparison: %s and %s", a.Type, b.Type)
	}
	af, bf := a.AsFloat64(), b.AsFloat64()
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

// Negate implements unary `-`.
func Negate(a Value) (Value, error) {
	switch a.Type {
	case Int:
		return IntValue(-a.Int), nil
	case Float:
		return FloatValue(-a.Float), nil
	default:
		return Value{}, typeErr("unsupported operand type for unary -: %s", a.Type)
	}
}

// Index implements `base[idx]` (BINARY_SUBSCR). idx must be an Int.
func Index(base, idx Value) (Value, error) {
	if base.Type != Array {
		return Value{}, typeErr("cannot subscript a value of type %s", base.Type)
	}
	if idx.Type != Int {
		return Value{}, typeErr("array index must be an integer, got %s", idx.Type)
	}
	if idx.Int < 0 || idx.Int >= int64(len(base.Arr.Elems)) {
		return Value{}, &OpError{Kind: "IndexError", Message: fmt.Sprintf("array index %d out of bounds (length %d)", idx.Int, len(base.Arr.Elems))}
	}
	return base.Arr.Elems[idx.Int], nil
}

// StoreIndex implements `base[idx] = val` (STORE_SUBSCR).
func StoreIndex(base, idx, val Value) error {
	if base.Type != Array {
		return typeErr("cannot subscript a value of type %s", base.Type)
	}
	if idx.Type != Int {
		return typeErr("array index must be an integer, got %s", idx.Type)
	}
	if idx.Int < 0 || idx.Int >= int64(len(base.Arr.Elems)) {
		return &OpError{Kind: "IndexError", Message: fmt.Sprintf("array index %d out of bounds (length %d)", idx.Int, len(base.Arr.Elems))}
	}
	base.Arr.Elems[idx.Int] = val
	return nil
}
