package touchstone

import (
	"errors"
	"fmt"
)

// Kinds of FormatError. Compare with errors.Is.
var (
	ErrMissingHeader            = errors.New("missing option line")
	ErrInvalidHeader            = errors.New("invalid option line")
	ErrMalformedDataLine        = errors.New("malformed data line")
	ErrPortCountMismatch        = errors.New("port count mismatch")
	ErrUnsupportedParameterType = errors.New("unsupported parameter type")
	ErrNonMonotonicFrequency    = errors.New("non-monotonic frequency")
)

// FormatError reports why a file could not be parsed. Line is 1-based and
// zero when the error is not tied to a line.
type FormatError struct {
	File   string
	Line   int
	Kind   error
	Detail string
}

func (e *FormatError) Error() string {
	msg := e.Kind.Error()
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Kind }

func formatErr(file string, line int, kind error, format string, args ...any) *FormatError {
	return &FormatError{
		File:   file,
		Line:   line,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	}
}
