package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cwbudde/minilang/internal/bytecode"
	"github.com/cwbudde/minilang/internal/builtins"
	"github.com/cwbudde/minilang/internal/errors"
	"github.com/cwbudde/minilang/internal/interp"
	"github.com/spf13/cobra"
)

var (
	runEvalExpr string
	dumpAST     bool
	useVM       bool
	trace       bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a minilang file or expression",
	Long: `Execute a minilang program from a file or inline expression.

By default, run walks the AST directly. --vm instead compiles to bytecode
and executes it on the stack-based virtual machine; both back-ends share
identical semantics.

Examples:
  minilang run script.ml
  minilang run -e 'print(1 + 2);'
  minilang run --vm --trace script.ml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runEvalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "dump the parsed AST before running")
	runCmd.Flags().BoolVar(&useVM, "vm", false, "compile to bytecode and execute it on the VM instead of tree-walking")
	runCmd.Flags().BoolVar(&trace, "trace", false, "trace executed instructions (--vm only)")
}

func runScript(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(runEvalExpr, args)
	if err != nil {
		return err
	}

	prog, diags := parseAndAnalyze(source, filename, true)
	if len(diags) > 0 {
		stageErr := stageErrorFor(diags)
		fmt.Fprintln(os.Stderr, errors.FormatAll(diags, source, filename, true))
		return stageErr
	}

	if dumpAST {
		fmt.Println(prog.String())
	}

	host := &builtins.Host{Out: os.Stdout, In: bufio.NewReader(os.Stdin)}

	if !useVM {
		ip := interp.New(host)
		if err := ip.Run(prog); err != nil {
			return fmt.Errorf("runtime error: %w", err)
		}
		return nil
	}

	obj, err := bytecode.Compile(prog)
	if err != nil {
		return fmt.Errorf("compile error: %w", err)
	}
	vm := bytecode.New(obj, host)
	if trace {
		vm.Trace = os.Stderr
	}
	if err := vm.Run(); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}

// stageErrorFor reports which pipeline stage produced diags, matching
// "first-stage-wins" propagation rule.
func stageErrorFor(diags []*errors.Diagnostic) error {
	for _, d := range diags {
		if d.Kind == errors.SyntaxError || d.Kind == errors.IllegalCharacter {
			return fmt.Errorf("parsing failed with %d error(s)", len(diags))
		}
	}
	return fmt.Errorf("semantic analysis failed with %d error(s)", len(diags))
}
