package midifile

import (
	"errors"
	"fmt"
)

// Structural violations reported while decoding a file. Every one of them
// is fatal for the file being decoded.
var (
	ErrTruncatedInput  = errors.New("truncated input")
	ErrBadMagic        = errors.New("bad chunk magic")
	ErrMalformedEvent  = errors.New("malformed event")
	ErrNoRunningStatus = errors.New("no running status")
	ErrTrailingBytes   = errors.New("trailing bytes")
)

// DecodeError locates a structural violation inside the input buffer.
type DecodeError struct {
	Err    error
	Track  int // 0 for the header chunk
	Offset int // absolute buffer offset
	Detail string
}

func (e *DecodeError) Error() string {
	where := "header"
	if e.Track > 0 {
		where = fmt.Sprintf("track %d", e.Track)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v at offset %d", where, e.Err, e.Offset)
	}
	return fmt.Sprintf("%s: %v at offset %d: %s", where, e.Err, e.Offset, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
