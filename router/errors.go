package router

import "errors"

var (
	ErrAlreadyRunning = errors.New("router already running")
	ErrNotRunning     = errors.New("router not running")

	// ErrPaused is returned by WaitIdle when deliveries remain queued behind
	// a pause.
	ErrPaused = errors.New("router paused with pending deliveries")
)
