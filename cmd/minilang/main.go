// Command minilang is the CLI front end for the minilang scripting
// language: lexing, parsing, semantic analysis, compiling to bytecode,
// disassembling, and running either the compiled or the tree-walking
// path.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/minilang/cmd/minilang/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
