package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/minilang/internal/bytecode"
	"github.com/cwbudde/minilang/internal/errors"
	"github.com/spf13/cobra"
)

var (
	disasmEvalExpr string
	fromImage      bool
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Disassemble a minilang program or bytecode image",
	Long: `Compile a minilang source file (or load a pre-compiled bytecode
image with --image) and print its mnemonic disassembly: the constant pool
and, per function-pool entry, one line per instruction.

Examples:
  minilang disasm script.ml
  minilang disasm --image script.mbc`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().StringVarP(&disasmEvalExpr, "eval", "e", "", "disassemble inline code instead of reading from file")
	disasmCmd.Flags().BoolVar(&fromImage, "image", false, "treat the file argument as a pre-compiled bytecode image rather than source")
}

func runDisasm(_ *cobra.Command, args []string) error {
	if fromImage {
		if len(args) != 1 {
			return fmt.Errorf("--image requires a file path")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		obj, err := bytecode.Deserialize(data)
		if err != nil {
			diag, ok := err.(*errors.Diagnostic)
			if !ok {
				return fmt.Errorf("invalid bytecode image: %w", err)
			}
			fmt.Fprintln(os.Stderr, errors.FormatAll([]*errors.Diagnostic{diag}, "", args[0], true))
			return fmt.Errorf("invalid bytecode image")
		}
		fmt.Print(bytecode.Disassemble(obj))
		return nil
	}

	source, filename, err := readSource(disasmEvalExpr, args)
	if err != nil {
		return err
	}
	prog, diags := parseAndAnalyze(source, filename, true)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, errors.FormatAll(diags, source, filename, true))
		return stageErrorFor(diags)
	}
	obj, err := bytecode.Compile(prog)
	if err != nil {
		return fmt.Errorf("compile error: %w", err)
	}
	fmt.Print(bytecode.Disassemble(obj))
	return nil
}
