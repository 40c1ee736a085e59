package mediatype

import (
	"errors"
	"fmt"
)

// ErrMalformedMediaType is wrapped by every error returned from Parse.
// Use errors.Is() to check for it.
var ErrMalformedMediaType = errors.New("malformed media type")

// TokenErrorKind classifies a Tokenizer failure.
type TokenErrorKind int

const (
	// EndOfInput means the cursor was already past the last byte.
	EndOfInput TokenErrorKind = iota + 1
	// NoMatch means a required token consumed zero bytes.
	NoMatch
	// UnexpectedCharacter means the byte under the cursor was rejected.
	UnexpectedCharacter
	// InvalidToken means Normalize found a byte outside the class.
	InvalidToken
)

func (k TokenErrorKind) String() string {
	switch k {
	case EndOfInput:
		return "end of input"
	case NoMatch:
		return "no match"
	case UnexpectedCharacter:
		return "unexpected character"
	case InvalidToken:
		return "invalid token"
	default:
		return fmt.Sprintf("TokenErrorKind(%d)", int(k))
	}
}

// TokenError is a local scanning failure. It carries the cursor position
// so callers can report where the header went wrong.
type TokenError struct {
	Kind     TokenErrorKind
	Position int
	Detail   string
}

func (e *TokenError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Position, e.Detail)
	}
	return fmt.Sprintf("%s at position %d", e.Kind, e.Position)
}

// ParseError reports a media type that did not match the grammar.
// It unwraps to both ErrMalformedMediaType and the underlying cause.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrMalformedMediaType, e.Input, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedMediaType, e.Err}
}
