package lex

import (
	"fmt"
	"math"
)

// ErrorKind classifies a tokenization failure.
type ErrorKind uint8

const (
	// SourceTooLong means the file does not fit in a 32-bit byte offset.
	SourceTooLong ErrorKind = iota
	// TokenTooLong means a single token does not fit in a 16-bit length.
	TokenTooLong
	// InvalidToken means no token kind matches at a position.
	InvalidToken
)

// Error is a tokenization failure with the byte range it applies to.
type Error struct {
	Kind  ErrorKind
	Start uint32
	End   uint32
}

// Span returns the offending byte range. For SourceTooLong it is the empty
// range at the 4 GiB limit.
func (e *Error) Span() Span {
	if e.Kind == SourceTooLong {
		return Span{Start: math.MaxUint32, End: math.MaxUint32}
	}
	return Span{Start: e.Start, End: e.End}
}

// Message returns the diagnostic text for the error.
func (e *Error) Message() string {
	switch e.Kind {
	case SourceTooLong:
		return "file size exceeds 4 GiB limit"
	case TokenTooLong:
		return "token size exceeds 64 KiB limit"
	default:
		return "invalid token"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == SourceTooLong {
		return e.Message()
	}
	return fmt.Sprintf("%s at bytes %d..%d", e.Message(), e.Start, e.End)
}
