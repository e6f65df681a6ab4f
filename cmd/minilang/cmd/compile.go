package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/minilang/internal/bytecode"
	"github.com/cwbudde/minilang/internal/errors"
	"github.com/spf13/cobra"
)

var (
	compileEvalExpr string
	compileOut      string
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a minilang file to a bytecode image",
	Long: `Compile a minilang program to the binary bytecode image format and
write it to a file

Examples:
  minilang compile script.ml -o script.mbc
  minilang compile -e "print(1 + 2);" -o out.mbc`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileEvalExpr, "eval", "e", "", "compile inline code instead of reading from file")
	compileCmd.Flags().StringVarP(&compileOut, "output", "o", "a.mbc", "path to write the bytecode image to")
}

func runCompile(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(compileEvalExpr, args)
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

	data, err := bytecode.Serialize(obj)
	if err != nil {
		return fmt.Errorf("failed to serialize bytecode image: %w", err)
	}

	if err := os.WriteFile(compileOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", compileOut, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", compileOut, len(data))
	}
	return nil
}
