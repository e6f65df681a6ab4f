package parser

import (
	"fmt"

	"github.com/cwbudde/minilang/internal/lexer"
)

// ParseError is a single SyntaxError diagnostic raised while parsing.
type ParseError struct {
	Message string
	Pos     lexer.Position
}

func (e ParseError) Error() string {
	return fmt.Sprintf("SyntaxError: %s at %s", e.Message, e.Pos)
}
