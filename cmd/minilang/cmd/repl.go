package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/cwbudde/minilang/internal/builtins"
	"github.com/cwbudde/minilang/internal/errors"
	"github.com/cwbudde/minilang/internal/interp"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive minilang session",
	Long: `Start a line-editing REPL: each entry is parsed, analyzed, and run
against a persistent interpreter, so runtime state carries over between
entries. Each entry is analyzed on its own, so an entry that names a
variable or function declared in an earlier entry is rejected by
semantic analysis.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(_ *cobra.Command, _ []string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "minilang> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start REPL: %w", err)
	}
	defer rl.Close()

	host := &builtins.Host{Out: os.Stdout, In: bufio.NewReader(os.Stdin)}
	ip := interp.New(host)

	for {
		entry, err := readEntry(rl)
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(entry) == "" {
			continue
		}

		prog, diags := parseAndAnalyze(entry, "<repl>", true)
		if len(diags) > 0 {
			fmt.Fprintln(os.Stderr, errors.FormatAll(diags, entry, "<repl>", true))
			continue
		}
		if err := ip.Run(prog); err != nil {
			fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		}
	}
}

// readEntry reads lines from rl until braces balance, so a `fun`/`if`/
// `while` body spanning multiple lines can be entered a line at a time.
func readEntry(rl *readline.Instance) (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		line, err := rl.Readline()
		if err != nil {
			if sb.Len() == 0 {
				return "", err
			}
			return sb.String(), nil
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 {
			return sb.String(), nil
		}
		rl.SetPrompt("      ... ")
	}
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.minilang_history"
}
