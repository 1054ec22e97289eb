package kernel

import "errors"

var (
	ErrAlreadyStarted = errors.New("flow already started")
	ErrNotStarted     = errors.New("flow not started")
)
