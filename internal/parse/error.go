package parse

import (
	"fmt"

	"github.com/adroit-lang/adroit/internal/lex"
)

// Error reports that the token at Token is not one of Expected.
type Error struct {
	Token    lex.TokenID
	Expected lex.KindSet
}

// Message returns the diagnostic text, e.g. "expected `;` or `}`".
func (e *Error) Message() string {
	return "expected " + e.Expected.String()
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at token %d", e.Message(), e.Token)
}
