package bytecode

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestDisassemble_Snapshot pins the exact mnemonic rendering of a small,
// representative program — a comparison, a recursive call, and a
// short-circuited `and` — so an accidental opcode or operand-width change
// in the compiler shows up as a diff instead of silently shipping.
func TestDisassemble_Snapshot(t *testing.T) {
	src := `
	fun fact(n) {
		if (n <= 1) { return 1; }
		return n * fact(n - 1);
	}
	var ok = fact(5) > 0 and true;
	print(ok);
	`
	obj := mustCompile(t, src)
	snaps.MatchSnapshot(t, Disassemble(obj))
}
