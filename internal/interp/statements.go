package interp

import (
	"fmt"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/value"
)

func (ip *Interp) execStmt(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Block:
		return ip.execBlock(s)
	case *ast.VarDecl:
		return ip.execVarDecl(s)
	case *ast.FunDecl:
		return nil // registered in Run's pre-pass
	case *ast.Assign:
		return ip.execAssign(s)
	case *ast.If:
		return ip.execIf(s)
	case *ast.While:
		return ip.execWhile(s)
	case *ast.Return:
		return ip.execReturn(s)
	case *ast.Continue:
		ip.cf = controlFlow{kind: cfContinue}
		return nil
	case *ast.Break:
		ip.cf = controlFlow{kind: cfBreak}
		return nil
	case *ast.ExprStmt:
		_, err := ip.evalExpr(s.Expr)
		return err
	default:
		return fmt.Errorf("interp: unsupported statement %T", stmt)
	}
}

// execBlock runs stmts in order, stopping as soon as a break, continue, or
// return becomes pending so it can propagate to the nearest loop or call
// boundary that handles it.
func (ip *Interp) execBlock(b *ast.Block) error {
	for _, s := range b.Stmts {
		if err := ip.execStmt(s); err != nil {
			return err
		}
		if ip.cf.kind != cfNone {
			return nil
		}
	}
	return nil
}

func (ip *Interp) execVarDecl(v *ast.VarDecl) error {
	val := value.NilValue()
	if v.Expr != nil {
		var err error
		val, err = ip.evalExpr(v.Expr)
		if err != nil {
			return err
		}
	}
	ip.env.Define(v.Name, val)
	return nil
}

func (ip *Interp) execAssign(a *ast.Assign) error {
	switch lv := a.Lvalue.(type) {
	case *ast.Identifier:
		v, err := ip.evalExpr(a.Expr)
		if err != nil {
			return err
		}
		return ip.env.Set(lv.Name, v)
	case *ast.ArrayAccess:
		val, err := ip.evalExpr(a.Expr)
		if err != nil {
			return err
		}
		base, err := ip.evalExpr(lv.Base)
		if err != nil {
			return err
		}
		idx, err := ip.evalExpr(lv.Index)
		if err != nil {
			return err
		}
		return value.StoreIndex(base, idx, val)
	default:
		return fmt.Errorf("interp: unsupported assignment target %T", a.Lvalue)
	}
}

func (ip *Interp) execIf(stmt *ast.If) error {
	arms := append([]*ast.ConditionalArm{stmt.IfArm}, stmt.ElifArms...)
	for _, arm := range arms {
		cond, err := ip.evalExpr(arm.Cond)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return ip.execStmt(arm.Body)
		}
	}
	if stmt.ElseArm != nil {
		return ip.execStmt(stmt.ElseArm)
	}
	return nil
}

func (ip *Interp) execWhile(w *ast.While) error {
	for {
		cond, err := ip.evalExpr(w.Cond)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}
		if err := ip.execStmt(w.Body); err != nil {
			return err
		}
		switch ip.cf.kind {
		case cfBreak:
			ip.cf = controlFlow{}
			return nil
		case cfContinue:
			ip.cf = controlFlow{}
		case cfReturn:
			return nil
		}
	}
}

func (ip *Interp) execReturn(r *ast.Return) error {
	val := value.NilValue()
	if r.Expr != nil {
		var err error
		val, err = ip.evalExpr(r.Expr)
		if err != nil {
			return err
		}
	}
	ip.cf = controlFlow{kind: cfReturn, returnValue: val}
	return nil
}
