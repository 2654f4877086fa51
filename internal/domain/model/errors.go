package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrMalformedPose = errors.New("malformed pose")
)
