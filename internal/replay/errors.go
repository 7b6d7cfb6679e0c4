package replay

import "errors"

var (
	// ErrInvalidOrdering is returned when records are not in non-decreasing timestamp order.
	ErrInvalidOrdering = errors.New("records are not in timestamp order")

	// ErrNotRestartable is returned by Reset when the source cannot rewind.
	ErrNotRestartable = errors.New("replay source cannot be restarted")

	// ErrNoDriver is returned when a runner or pipeline has no driver.
	ErrNoDriver = errors.New("replay driver is required")
)
