package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/builtins"
	"github.com/cwbudde/minilang/internal/value"
)

// maxLocalSlots bounds a single frame's indexed local-variable array.
// Global variables are simply the locals of the main frame, so this also
// caps the number of distinct top-level variables a program may declare.
const maxLocalSlots = 256

// CompileError is returned when a program cannot be lowered to bytecode,
// e.g. because a call target isn't a plain name the compiler can resolve
// to a function-pool or native-table index.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string { return e.Message }

type fixup struct {
	pos   int
	label string
}

// funcScope holds the compile-time state for a single function body: its
// growing instruction stream, local-slot assignments, and pending label
// fixups. Globals declared while compiling `main` are recorded in the
// shared Compiler.globals map instead of a funcScope-local one.
type funcScope struct {
	locals    map[string]uint8
	labels    map[string]int
	loopStack []loopLabels
	fixups    []fixup
	code      []byte
	nextSlot  int
	isMain    bool
}

type loopLabels struct {
	continueLabel string
	breakLabel    string
}

// Compiler lowers a parsed and semantically validated Program into a
// CodeObject. It assumes the input already passed the parser and the
// semantic analyzer; it performs no diagnostics of its own beyond the
// handful of internal shape checks a well-formed AST can never violate.
type Compiler struct {
	constIndex map[any]int
	funcIndex  map[string]int
	globals    map[string]uint8
	obj        *CodeObject
	labelSeq   int
}

// Compile lowers prog to a CodeObject. The caller is expected to have
// already run the program through the parser and the semantic analyzer.
func Compile(prog *ast.Program) (*CodeObject, error) {
	c := &Compiler{
		constIndex: map[any]int{},
		funcIndex:  map[string]int{},
		globals:    map[string]uint8{},
		obj:        &CodeObject{},
	}

	funDecls := collectFunDecls(prog.Decls)
	// Pre-pass: reserve a function-pool slot per declared function so
	// forward and mutual calls resolve regardless of declaration order.
	c.obj.Functions = make([]FuncEntry, len(funDecls)+1)
	for i, fd := range funDecls {
		c.funcIndex[fd.Name] = i + 1
	}

	mainScope := &funcScope{isMain: true, locals: map[string]uint8{}, labels: map[string]int{}}
	for _, decl := range prog.Decls {
		if _, ok := decl.(*ast.FunDecl); ok {
			continue
		}
		if err := c.compileStmt(mainScope, decl); err != nil {
			return nil, err
		}
	}
	c.emitByte(mainScope, byte(OpEnd))
	if err := c.resolveLabels(mainScope); err != nil {
		return nil, err
	}
	c.obj.Functions[0] = FuncEntry{ArgCount: 0, Code: mainScope.code}

	for _, fd := range funDecls {
		entry, err := c.compileFunction(fd)
		if err != nil {
			return nil, err
		}
		c.obj.Functions[c.funcIndex[fd.Name]] = entry
	}

	return c.obj, nil
}

// collectFunDecls gathers, in declaration order, the function declarations
// that appear directly in stmts. It does not descend into blocks or
// control-flow bodies.
func collectFunDecls(stmts []ast.Statement) []*ast.FunDecl {
	var out []*ast.FunDecl
	for _, s := range stmts {
		if fd, ok := s.(*ast.FunDecl); ok {
			out = append(out, fd)
		}
	}
	return out
}

func (c *Compiler) compileFunction(fd *ast.FunDecl) (FuncEntry, error) {
	scope := &funcScope{locals: map[string]uint8{}, labels: map[string]int{}}
	for i, p := range fd.Params {
		scope.locals[p] = uint8(i)
	}
	scope.nextSlot = len(fd.Params)

	for _, stmt := range fd.Block.Stmts {
		if err := c.compileStmt(scope, stmt); err != nil {
			return FuncEntry{}, err
		}
	}
	// Every function unconditionally ends with a LOAD_NIL; RETURN_VALUE
	// fallback tail, so a body that falls off the end (for example one
	// whose only `return` is inside a conditional branch) returns Nil. The
	// tail is appended even when every path already returns.
	c.emitByte(scope, byte(OpLoadNil))
	c.emitByte(scope, byte(OpReturnValue))

	if err := c.resolveLabels(scope); err != nil {
		return FuncEntry{}, err
	}
	return FuncEntry{ArgCount: len(fd.Params), Code: scope.code}, nil
}

// --- statements ---

func (c *Compiler) compileStmt(fs *funcScope, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return c.compileVarDecl(fs, s)
	case *ast.FunDecl:
		return nil // compiled separately into its own function-pool slot
	case *ast.Assign:
		return c.compileAssign(fs, s)
	case *ast.If:
		return c.compileIf(fs, s)
	case *ast.While:
		return c.compileWhile(fs, s)
	case *ast.Return:
		if s.Expr != nil {
			if err := c.compileExpr(fs, s.Expr); err != nil {
				return err
			}
		} else {
			c.emitByte(fs, byte(OpLoadNil))
		}
		c.emitByte(fs, byte(OpReturnValue))
		return nil
	case *ast.Continue:
		if len(fs.loopStack) == 0 {
			return &CompileError{Message: "continue outside of loop"}
		}
		c.emitJump(fs, OpGoto, fs.loopStack[len(fs.loopStack)-1].continueLabel)
		return nil
	case *ast.Break:
		if len(fs.loopStack) == 0 {
			return &CompileError{Message: "break outside of loop"}
		}
		c.emitJump(fs, OpGoto, fs.loopStack[len(fs.loopStack)-1].breakLabel)
		return nil
	case *ast.ExprStmt:
		// The VM's opcode table has no generic "pop and discard" — a
		// Call's pushed return value is simply left on the operand stack
		// until the frame returns. Harmless for a frame-scoped stack.
		return c.compileExpr(fs, s.Expr)
	case *ast.Block:
		for _, inner := range s.Stmts {
			if err := c.compileStmt(fs, inner); err != nil {
				return err
			}
		}
		return nil
	default:
		return &CompileError{Message: fmt.Sprintf("unsupported statement %T", stmt)}
	}
}

func (c *Compiler) compileVarDecl(fs *funcScope, v *ast.VarDecl) error {
	if v.Expr != nil {
		if err := c.compileExpr(fs, v.Expr); err != nil {
			return err
		}
	} else {
		c.emitByte(fs, byte(OpLoadNil))
	}
	if fs.isMain {
		slot, ok := c.globals[v.Name]
		if !ok {
			slot = uint8(len(c.globals))
			c.globals[v.Name] = slot
		}
		c.emitByte(fs, byte(OpStoreGlobal))
		c.emitByte(fs, slot)
		return nil
	}
	slot := c.allocLocal(fs, v.Name)
	c.emitByte(fs, byte(OpStoreLocal))
	c.emitByte(fs, slot)
	return nil
}

func (c *Compiler) allocLocal(fs *funcScope, name string) uint8 {
	if slot, ok := fs.locals[name]; ok {
		return slot
	}
	slot := uint8(fs.nextSlot)
	fs.locals[name] = slot
	fs.nextSlot++
	return slot
}

func (c *Compiler) compileAssign(fs *funcScope, a *ast.Assign) error {
	switch lv := a.Lvalue.(type) {
	case *ast.Identifier:
		if err := c.compileExpr(fs, a.Expr); err != nil {
			return err
		}
		return c.storeName(fs, lv.Name)
	case *ast.ArrayAccess:
		// STORE_SUBSCR pops idx, then arr, then val, so the
		// push order must be val, arr, idx.
		if err := c.compileExpr(fs, a.Expr); err != nil {
			return err
		}
		if err := c.compileExpr(fs, lv.Base); err != nil {
			return err
		}
		if err := c.compileExpr(fs, lv.Index); err != nil {
			return err
		}
		c.emitByte(fs, byte(OpStoreSubscr))
		return nil
	default:
		return &CompileError{Message: fmt.Sprintf("unsupported assignment target %T", a.Lvalue)}
	}
}

func (c *Compiler) storeName(fs *funcScope, name string) error {
	if slot, ok := fs.locals[name]; ok {
		c.emitByte(fs, byte(OpStoreLocal))
		c.emitByte(fs, slot)
		return nil
	}
	if slot, ok := c.globals[name]; ok {
		c.emitByte(fs, byte(OpStoreGlobal))
		c.emitByte(fs, slot)
		return nil
	}
	if fs.isMain {
		slot := uint8(len(c.globals))
		c.globals[name] = slot
		c.emitByte(fs, byte(OpStoreGlobal))
		c.emitByte(fs, slot)
		return nil
	}
	return &CompileError{Message: fmt.Sprintf("assignment to undeclared name %q", name)}
}

func (c *Compiler) compileIf(fs *funcScope, stmt *ast.If) error {
	endLabel := c.newLabel()
	arms := append([]*ast.ConditionalArm{stmt.IfArm}, stmt.ElifArms...)
	for _, arm := range arms {
		nextLabel := c.newLabel()
		if err := c.compileExpr(fs, arm.Cond); err != nil {
			return err
		}
		c.emitJump(fs, OpPopJmpIfFalse, nextLabel)
		if err := c.compileStmt(fs, arm.Body); err != nil {
			return err
		}
		c.emitJump(fs, OpGoto, endLabel)
		c.defineLabel(fs, nextLabel)
	}
	if stmt.ElseArm != nil {
		if err := c.compileStmt(fs, stmt.ElseArm); err != nil {
			return err
		}
	}
	c.defineLabel(fs, endLabel)
	return nil
}

func (c *Compiler) compileWhile(fs *funcScope, stmt *ast.While) error {
	loopLabel := c.newLabel()
	endLabel := c.newLabel()
	c.defineLabel(fs, loopLabel)
	if err := c.compileExpr(fs, stmt.Cond); err != nil {
		return err
	}
	c.emitJump(fs, OpPopJmpIfFalse, endLabel)

	fs.loopStack = append(fs.loopStack, loopLabels{continueLabel: loopLabel, breakLabel: endLabel})
	err := c.compileStmt(fs, stmt.Body)
	fs.loopStack = fs.loopStack[:len(fs.loopStack)-1]
	if err != nil {
		return err
	}

	c.emitJump(fs, OpGoto, loopLabel)
	c.defineLabel(fs, endLabel)
	return nil
}

// --- expressions ---

func (c *Compiler) compileExpr(fs *funcScope, expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.Number:
		return c.compileNumber(fs, e)
	case *ast.String:
		idx := c.constIndexFor(value.StringValue(e.Value))
		c.emitLoadConst(fs, idx)
		return nil
	case *ast.True:
		c.emitByte(fs, byte(OpLoadTrue))
		return nil
	case *ast.False:
		c.emitByte(fs, byte(OpLoadFalse))
		return nil
	case *ast.Nil:
		c.emitByte(fs, byte(OpLoadNil))
		return nil
	case *ast.Identifier:
		return c.loadName(fs, e.Name)
	case *ast.Array:
		for _, el := range e.Elems {
			if err := c.compileExpr(fs, el); err != nil {
				return err
			}
		}
		c.emitByte(fs, byte(OpBuildList))
		c.emitU16(fs, uint16(len(e.Elems)))
		return nil
	case *ast.ArrayAccess:
		if err := c.compileExpr(fs, e.Base); err != nil {
			return err
		}
		if err := c.compileExpr(fs, e.Index); err != nil {
			return err
		}
		c.emitByte(fs, byte(OpBinarySubscr))
		return nil
	case *ast.Call:
		return c.compileCall(fs, e)
	case *ast.BinOp:
		return c.compileBinOp(fs, e)
	case *ast.UnaryOp:
		return c.compileUnaryOp(fs, e)
	default:
		return &CompileError{Message: fmt.Sprintf("unsupported expression %T", expr)}
	}
}

func (c *Compiler) compileNumber(fs *funcScope, n *ast.Number) error {
	if !n.IsFloat && n.IntVal >= 0 && n.IntVal <= 255 {
		c.emitByte(fs, byte(OpBIPush))
		c.emitByte(fs, byte(n.IntVal))
		return nil
	}
	var idx int
	if n.IsFloat {
		idx = c.constIndexFor(value.FloatValue(n.FloatVal))
	} else {
		idx = c.constIndexFor(value.IntValue(n.IntVal))
	}
	c.emitLoadConst(fs, idx)
	return nil
}

func (c *Compiler) loadName(fs *funcScope, name string) error {
	if slot, ok := fs.locals[name]; ok {
		c.emitByte(fs, byte(OpLoadLocal))
		c.emitByte(fs, slot)
		return nil
	}
	if slot, ok := c.globals[name]; ok {
		c.emitByte(fs, byte(OpLoadGlobal))
		c.emitByte(fs, slot)
		return nil
	}
	return &CompileError{Message: fmt.Sprintf("reference to undeclared name %q", name)}
}

func (c *Compiler) compileCall(fs *funcScope, call *ast.Call) error {
	ident, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return &CompileError{Message: "call target must resolve to a named function"}
	}
	for _, arg := range call.Args {
		if err := c.compileExpr(fs, arg); err != nil {
			return err
		}
	}
	if idx, ok := c.funcIndex[ident.Name]; ok {
		c.emitByte(fs, byte(OpCallFunction))
		c.emitByte(fs, uint8(idx))
		return nil
	}
	if idx, ok := builtins.IndexOf(ident.Name); ok {
		c.emitByte(fs, byte(OpCallNative))
		c.emitByte(fs, uint8(idx))
		return nil
	}
	return &CompileError{Message: fmt.Sprintf("call to undeclared function %q", ident.Name)}
}

var binOpcodes = map[ast.BinOpKind]OpCode{
	ast.OpAdd: OpBinaryAdd, ast.OpSub: OpBinarySub, ast.OpMul: OpBinaryMul,
	ast.OpDiv: OpBinaryDiv, ast.OpMod: OpBinaryModulo,
	ast.OpEq: OpCmpEq, ast.OpNeq: OpCmpNe,
	ast.OpGt: OpCmpGt, ast.OpGe: OpCmpGe, ast.OpLt: OpCmpLt, ast.OpLe: OpCmpLe,
}

func (c *Compiler) compileBinOp(fs *funcScope, b *ast.BinOp) error {
	switch b.Kind {
	case ast.OpOr:
		// Short-circuit `or` must be lowered to jumps, never a single
		// binary opcode
		trueLabel := c.newLabel()
		endLabel := c.newLabel()
		if err := c.compileExpr(fs, b.L); err != nil {
			return err
		}
		c.emitJump(fs, OpPopJmpIfTrue, trueLabel)
		if err := c.compileExpr(fs, b.R); err != nil {
			return err
		}
		c.emitJump(fs, OpGoto, endLabel)
		c.defineLabel(fs, trueLabel)
		c.emitByte(fs, byte(OpLoadTrue))
		c.defineLabel(fs, endLabel)
		return nil
	case ast.OpAnd:
		falseLabel := c.newLabel()
		endLabel := c.newLabel()
		if err := c.compileExpr(fs, b.L); err != nil {
			return err
		}
		c.emitJump(fs, OpPopJmpIfFalse, falseLabel)
		if err := c.compileExpr(fs, b.R); err != nil {
			return err
		}
		c.emitJump(fs, OpGoto, endLabel)
		c.defineLabel(fs, falseLabel)
		c.emitByte(fs, byte(OpLoadFalse))
		c.defineLabel(fs, endLabel)
		return nil
	}

	if err := c.compileExpr(fs, b.L); err != nil {
		return err
	}
	if err := c.compileExpr(fs, b.R); err != nil {
		return err
	}
	op, ok := binOpcodes[b.Kind]
	if !ok {
		return &CompileError{Message: fmt.Sprintf("unsupported binary operator %s", b.Kind)}
	}
	c.emitByte(fs, byte(op))
	return nil
}

func (c *Compiler) compileUnaryOp(fs *funcScope, u *ast.UnaryOp) error {
	if err := c.compileExpr(fs, u.Child); err != nil {
		return err
	}
	if u.Kind == ast.OpNot {
		c.emitByte(fs, byte(OpUnaryNot))
	} else {
		c.emitByte(fs, byte(OpUnaryNegative))
	}
	return nil
}

// --- emission plumbing ---

func (c *Compiler) constIndexFor(v value.Value) int {
	var key any
	switch v.Type {
	case value.Int:
		key = v.Int
	case value.Float:
		key = v.Float
	case value.String:
		key = "s:" + v.Str
	}
	if idx, ok := c.constIndex[key]; ok {
		return idx
	}
	idx := len(c.obj.Constants)
	c.obj.Constants = append(c.obj.Constants, v)
	c.constIndex[key] = idx
	return idx
}

func (c *Compiler) emitByte(fs *funcScope, b byte) {
	fs.code = append(fs.code, b)
}

func (c *Compiler) emitU16(fs *funcScope, v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	fs.code = append(fs.code, buf[0], buf[1])
}

func (c *Compiler) emitLoadConst(fs *funcScope, idx int) {
	c.emitByte(fs, byte(OpLoadConst))
	c.emitU16(fs, uint16(idx))
}

func (c *Compiler) newLabel() string {
	c.labelSeq++
	return fmt.Sprintf("L%d", c.labelSeq)
}

func (c *Compiler) defineLabel(fs *funcScope, name string) {
	fs.labels[name] = len(fs.code)
}

// emitJump appends a jump opcode with a placeholder u16 operand, to be
// patched to the label's resolved byte offset once the whole function has
// been emitted.
func (c *Compiler) emitJump(fs *funcScope, op OpCode, label string) {
	c.emitByte(fs, byte(op))
	fs.fixups = append(fs.fixups, fixup{pos: len(fs.code), label: label})
	fs.code = append(fs.code, 0, 0)
}

func (c *Compiler) resolveLabels(fs *funcScope) error {
	for _, fx := range fs.fixups {
		target, ok := fs.labels[fx.label]
		if !ok {
			return &CompileError{Message: fmt.Sprintf("internal error: unresolved label %q", fx.label)}
		}
		binary.BigEndian.PutUint16(fs.code[fx.pos:fx.pos+2], uint16(target))
	}
	return nil
}
