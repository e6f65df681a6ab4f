package interp

import "github.com/cwbudde/minilang/internal/value"

// controlFlowKind signals a pending break, continue, or return without
// unwinding the Go call stack with panics: it is recorded on the Interp
// and checked by every statement-list executor after running each child
// statement.
type controlFlowKind int

const (
	cfNone controlFlowKind = iota
	cfBreak
	cfContinue
	cfReturn
)

type controlFlow struct {
	returnValue value.Value
	kind        controlFlowKind
}
