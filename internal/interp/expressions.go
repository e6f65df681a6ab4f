package interp

import (
	"fmt"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/value"
)

func (ip *Interp) evalExpr(expr ast.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Number:
		if e.IsFloat {
			return value.FloatValue(e.FloatVal), nil
		}
		return value.IntValue(e.IntVal), nil
	case *ast.String:
		return value.StringValue(e.Value), nil
	case *ast.True:
		return value.BoolValue(true), nil
	case *ast.False:
		return value.BoolValue(false), nil
	case *ast.Nil:
		return value.NilValue(), nil
	case *ast.Identifier:
		v, ok := ip.env.Get(e.Name)
		if !ok {
			return value.Value{}, fmt.Errorf("undefined variable: %s", e.Name)
		}
		return v, nil
	case *ast.Array:
		elems := make([]value.Value, len(e.Elems))
		for i, el := range e.Elems {
			v, err := ip.evalExpr(el)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = v
		}
		return value.ArrayValue(&value.ArrayVal{Elems: elems}), nil
	case *ast.ArrayAccess:
		base, err := ip.evalExpr(e.Base)
		if err != nil {
			return value.Value{}, err
		}
		idx, err := ip.evalExpr(e.Index)
		if err != nil {
			return value.Value{}, err
		}
		return value.Index(base, idx)
	case *ast.Call:
		return ip.evalCall(e)
	case *ast.BinOp:
		return ip.evalBinOp(e)
	case *ast.UnaryOp:
		return ip.evalUnaryOp(e)
	default:
		return value.Value{}, fmt.Errorf("interp: unsupported expression %T", expr)
	}
}

func (ip *Interp) evalBinOp(b *ast.BinOp) (value.Value, error) {
	switch b.Kind {
	case ast.OpOr:
		l, err := ip.evalExpr(b.L)
		if err != nil {
			return value.Value{}, err
		}
		if l.Truthy() {
			return value.BoolValue(true), nil
		}
		return ip.evalExpr(b.R)
	case ast.OpAnd:
		l, err := ip.evalExpr(b.L)
		if err != nil {
			return value.Value{}, err
		}
		if !l.Truthy() {
			return value.BoolValue(false), nil
		}
		return ip.evalExpr(b.R)
	}

	l, err := ip.evalExpr(b.L)
	if err != nil {
		return value.Value{}, err
	}
	r, err := ip.evalExpr(b.R)
	if err != nil {
		return value.Value{}, err
	}

	switch b.Kind {
	case ast.OpAdd:
		return value.Add(l, r)
	case ast.OpSub:
		return value.Sub(l, r)
	case ast.OpMul:
		return value.Mul(l, r)
	case ast.OpDiv:
		return value.Div(l, r)
	case ast.OpMod:
		return value.Mod(l, r)
	case ast.OpEq, ast.OpNeq:
		eq, err := value.Equal(l, r)
		if err != nil {
			return value.Value{}, err
		}
		if b.Kind == ast.OpNeq {
			eq = !eq
		}
		return value.BoolValue(eq), nil
	case ast.OpGt, ast.OpGe, ast.OpLt, ast.OpLe:
		cmp, err := value.Compare(l, r)
		if err != nil {
			return value.Value{}, err
		}
		switch b.Kind {
		case ast.OpGt:
			return value.BoolValue(cmp > 0), nil
		case ast.OpGe:
			return value.BoolValue(cmp >= 0), nil
		case ast.OpLt:
			return value.BoolValue(cmp < 0), nil
		default:
			return value.BoolValue(cmp <= 0), nil
		}
	default:
		return value.Value{}, fmt.Errorf("interp: unsupported binary operator %s", b.Kind)
	}
}

func (ip *Interp) evalUnaryOp(u *ast.UnaryOp) (value.Value, error) {
	v, err := ip.evalExpr(u.Child)
	if err != nil {
		return value.Value{}, err
	}
	if u.Kind == ast.OpNot {
		return value.BoolValue(!v.Truthy()), nil
	}
	return value.Negate(v)
}
