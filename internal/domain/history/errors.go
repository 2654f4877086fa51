package history

import "errors"

// Sentinel kinds for history errors.
var (
	ErrOutOfOrder = errors.New("pose timestamp out of order")
)
