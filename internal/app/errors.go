package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrBackpressure    = errors.New("queue full, retry later")
	ErrNoReport        = errors.New("session has not ended")
)
