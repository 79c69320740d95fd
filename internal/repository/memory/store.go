// Package memory is an in-process implementation of repository.Store.
// Transactions are serialized: a transaction works on a private copy of the
// data and publishes it on commit, so readers never observe partial writes.
package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
)

type state struct {
	users    map[uuid.UUID]domain.User
	flights  map[uuid.UUID]domain.Flight
	bookings map[uuid.UUID]domain.Booking  // Tickets left nil
	tickets  map[uuid.UUID][]domain.Ticket // by booking, in passenger order
}

func newState() *state {
	return &state{
		users:    make(map[uuid.UUID]domain.User),
		flights:  make(map[uuid.UUID]domain.Flight),
		bookings: make(map[uuid.UUID]domain.Booking),
		tickets:  make(map[uuid.UUID][]domain.Ticket),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.flights {
		c.flights[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = append([]domain.Ticket(nil), v...)
	}
	return c
}

type shared struct {
	// sem is a one-slot semaphore guarding data; unlike a mutex it can be
	// acquired with a deadline.
	sem  chan struct{}
	data *state
}

type Store struct {
	shared    *shared
	tx        *state
	txTimeout time.Duration
	now       func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(txTimeout time.Duration, opts ...Option) *Store {
	s := &Store{
		shared:    &shared{sem: make(chan struct{}, 1), data: newState()},
		txTimeout: txTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Users() repository.UserRepository       { return &userRepo{s: s} }
func (s *Store) Flights() repository.FlightRepository   { return &flightRepo{s: s} }
func (s *Store) Bookings() repository.BookingRepository { return &bookingRepo{s: s} }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	working := s.shared.data.clone()
	if err := fn(ctx, &Store{shared: s.shared, tx: working, txTimeout: s.txTimeout, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return contextError("commit", err)
	}
	s.shared.data = working
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.shared.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return contextError("waiting for store", ctx.Err())
	}
}

// contextError reports an expired deadline as ErrTimeout and passes any other
// context error, such as cancellation, through.
func contextError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", domain.ErrTimeout, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) release() {
	<-s.shared.sem
}

// read runs fn against the transaction's view, or the committed data when
// called outside a transaction.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn(s.shared.data)
}

// write runs fn inside the current transaction, or in a single-operation
// transaction of its own.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(tx.(*Store).tx)
	})
}

// deleteBookings removes the matching bookings with their tickets.
func (st *state) deleteBookings(match func(domain.Booking) bool) {
	for id, b := range st.bookings {
		if match(b) {
			delete(st.tickets, id)
			delete(st.bookings, id)
		}
	}
}

var _ repository.Store = (*Store)(nil)
