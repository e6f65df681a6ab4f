// Package builtins implements the host-injected function table. Its
// entries, indices, and arities are shared by both execution back-ends:
// CALL_NATIVE in the VM dispatches by index, the tree-walking
// interpreter dispatches by name.
package builtins

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/cwbudde/minilang/internal/value"
)

// Host bundles the injectable side-effecting capabilities a built-in may
// need: where to write output and where to read a line of input from.
type Host struct {
	Out io.Writer
	In  *bufio.Reader
}

// Func is the signature every built-in implements.
type Func func(h *Host, args []value.Value) (value.Value, error)

// Info describes one entry of the built-in table.
type Info struct {
	Fn    Func
	Name  string
	Arity int
}

// Table is ordered exactly: print=0, println=1, input=2,
// len=3, int=4, str=5, isinteger=6. CALL_NATIVE's operand byte indexes
// directly into this slice.
var Table = []Info{
	{Name: "print", Arity: 1, Fn: biPrint},
	{Name: "println", Arity: 1, Fn: biPrintln},
	{Name: "input", Arity: 1, Fn: biInput},
	{Name: "len", Arity: 1, Fn: biLen},
	{Name: "int", Arity: 1, Fn: biInt},
	{Name: "str", Arity: 1, Fn: biStr},
	{Name: "isinteger", Arity: 1, Fn: biIsInteger},
}

// IndexOf returns the CALL_NATIVE operand byte for a built-in name.
func IndexOf(name string) (int, bool) {
	for i, info := range Table {
		if info.Name == name {
			return i, true
		}
	}
	return -1, false
}

func typeErr(format string, args ...any) error {
	return &value.OpError{Kind: "TypeError", Message: fmt.Sprintf(format, args...)}
}

func valueErr(format string, args ...any) error {
	return &value.OpError{Kind: "ValueError", Message: fmt.Sprintf(format, args...)}
}

func biPrint(h *Host, args []value.Value) (value.Value, error) {
	io.WriteString(h.Out, args[0].Display())
	return value.NilValue(), nil
}

func biPrintln(h *Host, args []value.Value) (value.Value, error) {
	io.WriteString(h.Out, args[0].Display())
	io.WriteString(h.Out, "\n")
	return value.NilValue(), nil
}

func biInput(h *Host, args []value.Value) (value.Value, error) {
	io.WriteString(h.Out, args[0].Display())
	line, err := h.In.ReadString('\n')
	if err != nil && line == "" {
		return value.StringValue(""), nil
	}
	line = strings.TrimRight(line, "\r\n")
	return value.StringValue(line), nil
}

func biLen(h *Host, args []value.Value) (value.Value, error) {
	switch args[0].Type {
	case value.String:
		return value.IntValue(int64(len(args[0].Str))), nil
	case value.Array:
		return value.IntValue(int64(len(args[0].Arr.Elems))), nil
	default:
		return value.Value{}, typeErr("len() requires a String or Array, got %s", args[0].Type)
	}
}

var signedIntPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)

func biInt(h *Host, args []value.Value) (value.Value, error) {
	switch a := args[0]; a.Type {
	case value.Bool:
		if a.Bool {
			return value.IntValue(1), nil
		}
		return value.IntValue(0), nil
	case value.String:
		if !signedIntPattern.MatchString(a.Str) {
			return value.Value{}, valueErr("invalid literal for int(): %q", a.Str)
		}
		n, err := strconv.ParseInt(a.Str, 10, 64)
		if err != nil {
			return value.Value{}, valueErr("invalid literal for int(): %q", a.Str)
		}
		return value.IntValue(n), nil
	default:
		return value.Value{}, typeErr("int() requires a String or Boolean, got %s", a.Type)
	}
}

func biStr(h *Host, args []value.Value) (value.Value, error) {
	return value.StringValue(args[0].Display()), nil
}

func biIsInteger(h *Host, args []value.Value) (value.Value, error) {
	if args[0].Type != value.String {
		return value.Value{}, typeErr("isinteger() requires a String, got %s", args[0].Type)
	}
	return value.BoolValue(signedIntPattern.MatchString(args[0].Str)), nil
}
