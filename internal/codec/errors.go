package codec

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for file extensions or format names the
// codec does not handle.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrEmptyFile is returned when an input has no header row.
var ErrEmptyFile = errors.New("empty file")

// ParseError reports malformed input content.
type ParseError struct {
	Format Format
	Line   int // 1-based line or sheet row, 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError reports a failure while serializing a table. No partial output is
// ever returned alongside it.
type IOError struct {
	Format Format
	Op     string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("serialization failed: %s %s: %v", e.Format, e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
