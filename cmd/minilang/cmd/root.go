package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information, set by build flags.
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "minilang",
	Short: "minilang interpreter and compiler",
	Long: `minilang is a small dynamically-typed scripting language with two
execution back-ends sharing the same runtime values:

  - a tree-walking interpreter, run directly against the parsed AST
  - a bytecode compiler and stack-based virtual machine

Both back-ends implement identical language semantics; the VM path exists
to exercise the compiler, the binary bytecode format, and the
disassembler.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
