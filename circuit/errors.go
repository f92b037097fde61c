package circuit

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedGate is returned for gate names or kinds that have no
	// known meaning.
	ErrUnsupportedGate = errors.New("unsupported gate")
	// ErrMalformedGate is returned for wrong parameter or operand counts and
	// bad parameter expressions.
	ErrMalformedGate = errors.New("malformed gate")
	ErrSyntax        = errors.New("syntax error")
	ErrRegister      = errors.New("unknown register or index out of range")
)

// ParseError reports the source line a parse failure occurred on.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }
