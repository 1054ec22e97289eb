package debugger

import "errors"

var (
	ErrBreakpointNotFound = errors.New("breakpoint not found")
	ErrInvalidPort        = errors.New("port must be -1 or a non-negative integer")
	ErrStreamClosed       = errors.New("event stream closed")
)
