package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("service unhealthy")

	// ErrVerification is returned in strict mode when a replay produced
	// results that disagree with its scenario.
	ErrVerification = errors.New("verification failed")
)

// StatusError is an unexpected HTTP response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}
