package session

import "errors"

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrEmptyTrackID is returned when a role is assigned an empty track.
	ErrEmptyTrackID = errors.New("empty track id")
)
