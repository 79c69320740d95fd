package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrConstraintViolation    = errors.New("constraint violation")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrFlightNotBookable      = errors.New("flight is not bookable")
	ErrEmptyBooking           = errors.New("booking has no passengers")
	ErrSeatUnavailable        = errors.New("seat unavailable")
	ErrInvalidInput           = errors.New("invalid input")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrTimeout                = errors.New("transaction timed out")
)

// IsRetryable reports whether the caller may repeat the request, possibly
// with different input (another seat, a fresh read).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSeatUnavailable) || errors.Is(err, ErrConcurrentModification)
}
