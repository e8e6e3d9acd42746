package asm

import (
	"errors"
	"fmt"

	"github.com/roach88/dynir/internal/ir"
)

// ParseError is a recoverable error in textual input, reported with the
// offending location.
type ParseError struct {
	Loc     ir.Location
	Message string
}

func (e *ParseError) Error() string {
	if e.Loc.IsValid() {
		return fmt.Sprintf("%s: %s", e.Loc, e.Message)
	}
	return e.Message
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
