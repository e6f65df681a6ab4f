package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/errors"
	"github.com/cwbudde/minilang/internal/lexer"
	"github.com/cwbudde/minilang/internal/parser"
	"github.com/cwbudde/minilang/internal/semantic"
	"github.com/spf13/cobra"
)

var (
	parseEvalExpr   string
	parseTypeCheck  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a minilang file and print its AST",
	Long: `Parse a minilang program and print the AST, re-rendered as source
text: parsing that output again must reproduce a structurally identical
AST.

Examples:
  minilang parse script.ml
  minilang parse -e "print(1 + 2);"
  minilang parse --type-check=false script.ml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseEvalExpr, "eval", "e", "", "parse inline code instead of reading from file")
	parseCmd.Flags().BoolVar(&parseTypeCheck, "type-check", true, "run semantic analysis after parsing")
}

func runParse(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(parseEvalExpr, args)
	if err != nil {
		return err
	}

	prog, diags := parseAndAnalyze(source, filename, parseTypeCheck)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, errors.FormatAll(diags, source, filename, true))
		return fmt.Errorf("parsing failed with %d error(s)", len(diags))
	}

	fmt.Println(prog.String())
	return nil
}

// parseAndAnalyze runs the lexer and parser over source and returns their
// diagnostics if there are any. Only when there are none and typeCheck is
// set does it run the semantic analyzer and return the analyzer's
// diagnostics.
func parseAndAnalyze(source, filename string, typeCheck bool) (*ast.Program, []*errors.Diagnostic) {
	l := lexer.New(source)
	p := parser.New(l)
	prog := p.ParseProgram()

	var diags []*errors.Diagnostic
	for _, e := range l.Errors() {
		diags = append(diags, errors.New(errors.Kind(e.Kind.String()), e.Message, e.Pos))
	}
	for _, e := range p.Errors() {
		diags = append(diags, errors.New(errors.SyntaxError, e.Message, e.Pos))
	}
	if len(diags) > 0 {
		return prog, diags
	}

	if !typeCheck {
		return prog, nil
	}

	an := semantic.NewAnalyzer()
	an.SetSource(source, filename)
	_ = an.Analyze(prog)
	return prog, an.Errors()
}
