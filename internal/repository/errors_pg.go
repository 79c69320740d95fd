package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

var domainErrors = []error{
	domain.ErrNotFound,
	domain.ErrConstraintViolation,
	domain.ErrInvalidTransition,
	domain.ErrFlightNotBookable,
	domain.ErrEmptyBooking,
	domain.ErrSeatUnavailable,
	domain.ErrInvalidInput,
	domain.ErrConcurrentModification,
	domain.ErrTimeout,
}

// translate maps driver errors onto the domain error taxonomy. Errors that
// already carry a domain kind pass through untouched.
func translate(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505", "23514", "23502":
		return fmt.Errorf("%w: %s: %v", domain.ErrConstraintViolation, pgErr.ConstraintName, err)
	case "23503":
		return fmt.Errorf("%w: %s: %v", domain.ErrNotFound, pgErr.ConstraintName, err)
	case "22001":
		return fmt.Errorf("%w: value too long: %v", domain.ErrInvalidInput, err)
	case "40001", "40P01":
		return fmt.Errorf("%w: %v", domain.ErrConcurrentModification, err)
	case "57014", "55P03":
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
