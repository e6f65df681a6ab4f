// Package errors formats minilang diagnostics with source context and a
// caret pointing at the offending column, so scanner, parser, analyzer,
// and runtime errors all render the same way.
package errors

import (
	"fmt"
	"strings"

	"github.com/cwbudde/minilang/internal/lexer"
)

// Kind is the diagnostic taxonomy shared across every pipeline stage.
type Kind string

const (
	IllegalCharacter    Kind = "IllegalCharacter"
	SyntaxError         Kind = "SyntaxError"
	NameError           Kind = "NameError"
	TypeError           Kind = "TypeError"
	ValueError          Kind = "ValueError"
	ZeroDivisionError   Kind = "ZeroDivisionError"
	IndexError          Kind = "IndexError"
	InvalidBytecodeError Kind = "InvalidBytecodeError"
)

// Diagnostic is a single error with a kind, a message, and (when known) a
// source position.
type Diagnostic struct {
	Kind    Kind
	Message string
	File    string
	Source  string
	Pos     lexer.Position
	HasPos  bool
}

// New creates a positioned diagnostic.
func New(kind Kind, message string, pos lexer.Position) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message, Pos: pos, HasPos: true}
}

// NewUnpositioned creates a diagnostic with no known source location.
func NewUnpositioned(kind Kind, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message}
}

// Error implements the error interface, prefixing the message with the
// kind and, when known, appending the source location as " at line:col".
func (d *Diagnostic) Error() string {
	if !d.HasPos {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s at %s", d.Kind, d.Message, d.Pos)
}

// Format renders the diagnostic with a source-line excerpt and a caret,
// optionally in ANSI color for a terminal.
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder

	if d.File != "" {
		fmt.Fprintf(&sb, "%s in %s", d.Kind, d.File)
	} else {
		fmt.Fprintf(&sb, "%s", d.Kind)
	}
	if d.HasPos {
		fmt.Fprintf(&sb, " at %d:%d", d.Pos.Line, d.Pos.Column)
	}
	sb.WriteString("\n")

	if d.HasPos {
		if line := sourceLine(d.Source, d.Pos.Line); line != "" {
			prefix := fmt.Sprintf("%4d | ", d.Pos.Line)
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", len(prefix)+d.Pos.Column-1))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func sourceLine(source string, line int) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// FormatAll renders a batch of diagnostics, one after another, attaching
// file and source so each one can print its own excerpt.
func FormatAll(diags []*Diagnostic, source, file string, color bool) string {
	var sb strings.Builder
	for i, d := range diags {
		d.Source = source
		d.File = file
		sb.WriteString(d.Format(color))
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
