package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cwbudde/minilang/internal/builtins"
	"github.com/cwbudde/minilang/internal/value"
)

// RuntimeError wraps a value-level operation error (TypeError,
// ZeroDivisionError, IndexError, ...) raised while the VM executed an
// instruction, together with the instruction's byte offset for tracing.
type RuntimeError struct {
	Err    error
	Offset int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s (at offset %d)", e.Err, e.Offset)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// frame is one activation record: the function being executed, its
// instruction pointer, its local-variable slots, and its own operand
// stack.
type frame struct {
	fn     *FuncEntry
	locals []value.Value
	stack  []value.Value
	ip     int
}

func newFrame(fn *FuncEntry) *frame {
	return &frame{fn: fn, locals: make([]value.Value, maxLocalSlots)}
}

func (f *frame) push(v value.Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() value.Value {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

// VM executes a compiled CodeObject. It implements the frame/call-stack
// model directly: CALL_FUNCTION pushes a new frame, RETURN_VALUE pops the
// current frame and pushes its result onto the caller's stack, and OpEnd
// (only legal in the main frame) halts the machine.
type VM struct {
	obj   *CodeObject
	host  *builtins.Host
	calls []*frame
	Trace io.Writer
}

// New constructs a VM ready to run obj, routing built-ins' output/input
// through host.
func New(obj *CodeObject, host *builtins.Host) *VM {
	return &VM{obj: obj, host: host}
}

const maxCallDepth = 1024

// Run executes the program's `main` function (function-pool index 0) until
// OpEnd halts it, returning nil on a clean run or the first runtime error.
// main yields no value of its own.
func (vm *VM) Run() error {
	if len(vm.obj.Functions) == 0 {
		return &RuntimeError{Err: fmt.Errorf("code object has no main function")}
	}
	main := &vm.obj.Functions[0]
	vm.calls = []*frame{newFrame(main)}

	for len(vm.calls) > 0 {
		fr := vm.calls[len(vm.calls)-1]
		if vm.Trace != nil {
			fmt.Fprintln(vm.Trace, TraceLine(fr.fn, fr.ip))
		}
		op := OpCode(fr.fn.Code[fr.ip])

		switch op {
		case OpEnd:
			return nil

		case OpLoadNil:
			fr.push(value.NilValue())
			fr.ip++
		case OpLoadTrue:
			fr.push(value.BoolValue(true))
			fr.ip++
		case OpLoadFalse:
			fr.push(value.BoolValue(false))
			fr.ip++

		case OpBIPush:
			n := fr.fn.Code[fr.ip+1]
			fr.push(value.IntValue(int64(n)))
			fr.ip += 2

		case OpLoadConst:
			idx := readU16(fr.fn.Code, fr.ip+1)
			fr.push(vm.obj.Constants[idx])
			fr.ip += 3

		case OpLoadLocal:
			slot := fr.fn.Code[fr.ip+1]
			fr.push(fr.locals[slot])
			fr.ip += 2
		case OpStoreLocal:
			slot := fr.fn.Code[fr.ip+1]
			fr.locals[slot] = fr.pop()
			fr.ip += 2

		case OpLoadGlobal:
			slot := fr.fn.Code[fr.ip+1]
			fr.push(vm.calls[0].locals[slot])
			fr.ip += 2
		case OpStoreGlobal:
			slot := fr.fn.Code[fr.ip+1]
			vm.calls[0].locals[slot] = fr.pop()
			fr.ip += 2

		case OpBinaryAdd, OpBinarySub, OpBinaryMul, OpBinaryDiv, OpBinaryModulo:
			if err := vm.binaryArith(fr, op); err != nil {
				return err
			}
		case OpBinaryAnd:
			b, a := fr.pop(), fr.pop()
			fr.push(value.BoolValue(a.Truthy() && b.Truthy()))
			fr.ip++
		case OpBinaryOr:
			b, a := fr.pop(), fr.pop()
			fr.push(value.BoolValue(a.Truthy() || b.Truthy()))
			fr.ip++

		case OpUnaryNegative:
			a := fr.pop()
			res, err := value.Negate(a)
			if err != nil {
				return vm.wrapErr(err, fr)
			}
			fr.push(res)
			fr.ip++
		case OpUnaryNot:
			a := fr.pop()
			fr.push(value.BoolValue(!a.Truthy()))
			fr.ip++

		case OpCmpEq, OpCmpNe:
			b, a := fr.pop(), fr.pop()
			eq, err := value.Equal(a, b)
			if err != nil {
				return vm.wrapErr(err, fr)
			}
			if op == OpCmpNe {
				eq = !eq
			}
			fr.push(value.BoolValue(eq))
			fr.ip++
		case OpCmpGt, OpCmpGe, OpCmpLt, OpCmpLe:
			if err := vm.compare(fr, op); err != nil {
				return err
			}

		case OpPopJmpIfTrue:
			target := readU16(fr.fn.Code, fr.ip+1)
			v := fr.pop()
			if v.Truthy() {
				fr.ip = int(target)
			} else {
				fr.ip += 3
			}
		case OpPopJmpIfFalse:
			target := readU16(fr.fn.Code, fr.ip+1)
			v := fr.pop()
			if !v.Truthy() {
				fr.ip = int(target)
			} else {
				fr.ip += 3
			}
		case OpGoto:
			fr.ip = int(readU16(fr.fn.Code, fr.ip+1))

		case OpBuildList:
			n := int(readU16(fr.fn.Code, fr.ip+1))
			elems := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = fr.pop()
			}
			fr.push(value.ArrayValue(&value.ArrayVal{Elems: elems}))
			fr.ip += 3
		case OpBinarySubscr:
			idx, base := fr.pop(), fr.pop()
			res, err := value.Index(base, idx)
			if err != nil {
				return vm.wrapErr(err, fr)
			}
			fr.push(res)
			fr.ip++
		case OpStoreSubscr:
			idx, base, val := fr.pop(), fr.pop(), fr.pop()
			if err := value.StoreIndex(base, idx, val); err != nil {
				return vm.wrapErr(err, fr)
			}
			fr.ip++

		case OpCallFunction:
			idx := fr.fn.Code[fr.ip+1]
			fr.ip += 2
			if len(vm.calls) >= maxCallDepth {
				return vm.wrapErr(fmt.Errorf("stack overflow"), fr)
			}
			callee := &vm.obj.Functions[idx]
			nf := newFrame(callee)
			for i := callee.ArgCount - 1; i >= 0; i-- {
				nf.locals[i] = fr.pop()
			}
			vm.calls = append(vm.calls, nf)

		case OpCallNative:
			idx := fr.fn.Code[fr.ip+1]
			fr.ip += 2
			info := builtins.Table[idx]
			args := make([]value.Value, info.Arity)
			for i := info.Arity - 1; i >= 0; i-- {
				args[i] = fr.pop()
			}
			result, err := info.Fn(vm.host, args)
			if err != nil {
				return vm.wrapErr(err, fr)
			}
			fr.push(result)

		case OpReturnValue:
			ret := fr.pop()
			vm.calls = vm.calls[:len(vm.calls)-1]
			if len(vm.calls) == 0 {
				return nil
			}
			caller := vm.calls[len(vm.calls)-1]
			caller.push(ret)

		default:
			return &RuntimeError{Err: fmt.Errorf("invalid opcode 0x%02x", byte(op)), Offset: fr.ip}
		}
	}
	return nil
}

func (vm *VM) binaryArith(fr *frame, op OpCode) error {
	b, a := fr.pop(), fr.pop()
	var res value.Value
	var err error
	switch op {
	case OpBinaryAdd:
		res, err = value.Add(a, b)
	case OpBinarySub:
		res, err = value.Sub(a, b)
	case OpBinaryMul:
		res, err = value.Mul(a, b)
	case OpBinaryDiv:
		res, err = value.Div(a, b)
	case OpBinaryModulo:
		res, err = value.Mod(a, b)
	}
	if err != nil {
		return vm.wrapErr(err, fr)
	}
	fr.push(res)
	fr.ip++
	return nil
}

func (vm *VM) compare(fr *frame, op OpCode) error {
	b, a := fr.pop(), fr.pop()
	cmp, err := value.Compare(a, b)
	if err != nil {
		return vm.wrapErr(err, fr)
	}
	var result bool
	switch op {
	case OpCmpGt:
		result = cmp > 0
	case OpCmpGe:
		result = cmp >= 0
	case OpCmpLt:
		result = cmp < 0
	case OpCmpLe:
		result = cmp <= 0
	}
	fr.push(value.BoolValue(result))
	fr.ip++
	return nil
}

func (vm *VM) wrapErr(err error, fr *frame) error {
	return &RuntimeError{Err: err, Offset: fr.ip}
}

func readU16(code []byte, pos int) uint16 {
	return binary.BigEndian.Uint16(code[pos : pos+2])
}
