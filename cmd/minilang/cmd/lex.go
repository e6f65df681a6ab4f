package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/minilang/internal/errors"
	"github.com/cwbudde/minilang/internal/lexer"
	"github.com/spf13/cobra"
)

var (
	lexEvalExpr string
	showPos     bool
	showType    bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a minilang file or expression",
	Long: `Tokenize a minilang program and print the resulting tokens.

Examples:
  minilang lex script.ml
  minilang lex -e "var x = 42;"
  minilang lex --show-type --show-pos script.ml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)
	lexCmd.Flags().StringVarP(&lexEvalExpr, "eval", "e", "", "tokenize inline code instead of reading from file")
	lexCmd.Flags().BoolVar(&showPos, "show-pos", false, "show token positions (line:column)")
	lexCmd.Flags().BoolVar(&showType, "show-type", false, "show token type names")
}

func runLex(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(lexEvalExpr, args)
	if err != nil {
		return err
	}

	l := lexer.New(source)
	tokens, lexErrs := l.Tokenize()

	for _, tok := range tokens {
		switch {
		case showType && showPos:
			fmt.Printf("%-14s %-12q %s\n", tok.Type, tok.Literal, tok.Pos)
		case showType:
			fmt.Printf("%-14s %q\n", tok.Type, tok.Literal)
		case showPos:
			fmt.Printf("%-12q %s\n", tok.Literal, tok.Pos)
		default:
			fmt.Printf("%q\n", tok.Literal)
		}
	}

	if len(lexErrs) > 0 {
		var diags []*errors.Diagnostic
		for _, e := range lexErrs {
			diags = append(diags, errors.New(errors.Kind(e.Kind.String()), e.Message, e.Pos))
		}
		fmt.Fprintln(os.Stderr, errors.FormatAll(diags, source, filename, true))
		return fmt.Errorf("lexing failed with %d error(s)", len(lexErrs))
	}
	return nil
}
