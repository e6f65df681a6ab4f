package bytecode

import "github.com/cwbudde/minilang/internal/value"

// FuncEntry is one function-pool entry: its formal argument count and its
// flat instruction stream. Entry index 0 is always the implicit `main`
// function, whose stream ends in OpEnd rather than OpReturnValue.
type FuncEntry struct {
	Code     []byte
	ArgCount int
}

// CodeObject is the result of compilation: a typed constant pool plus a
// function pool, ready either to run directly on the VM or to be
// serialized to the binary image format.
type CodeObject struct {
	Constants []value.Value
	Functions []FuncEntry
}
