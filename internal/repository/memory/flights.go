package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
)

type flightRepo struct {
	s *Store
}

func (r *flightRepo) Create(ctx context.Context, f *domain.Flight) error {
	return r.s.write(ctx, func(st *state) error {
		if _, exists := st.flights[f.ID]; exists {
			return fmt.Errorf("%w: flight %s already exists", domain.ErrConstraintViolation, f.ID)
		}
		for _, other := range st.flights {
			if other.Code == f.Code {
				return fmt.Errorf("%w: flight code %s already used", domain.ErrConstraintViolation, f.Code)
			}
		}
		if !f.ArrivalTime.After(f.DepartureTime) || !f.BasePrice.IsPositive() {
			return fmt.Errorf("%w: flight %s schedule or price", domain.ErrConstraintViolation, f.Code)
		}
		now := r.s.now()
		f.Version = 1
		f.CreatedAt, f.UpdatedAt = now, now
		st.flights[f.ID] = *f
		return nil
	})
}

func (r *flightRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	var out domain.Flight
	err := r.s.read(ctx, func(st *state) error {
		f, ok := st.flights[id]
		if !ok {
			return fmt.Errorf("%w: flight %s", domain.ErrNotFound, id)
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate needs no extra locking: transactions are already serialized.
func (r *flightRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	return r.GetByID(ctx, id)
}

func (r *flightRepo) List(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, f := range st.flights {
			if filter.Match(f) {
				flights = append(flights, f)
			}
		}
		return nil
	})
	sort.Slice(flights, func(i, j int) bool {
		if !flights[i].DepartureTime.Equal(flights[j].DepartureTime) {
			return flights[i].DepartureTime.Before(flights[j].DepartureTime)
		}
		return flights[i].Code < flights[j].Code
	})
	return flights, err
}

func (r *flightRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.FlightStatus) (*domain.Flight, error) {
	var out domain.Flight
	err := r.s.write(ctx, func(st *state) error {
		f, ok := st.flights[id]
		if !ok {
			return fmt.Errorf("%w: flight %s", domain.ErrNotFound, id)
		}
		if f.Version != expectedVersion {
			return fmt.Errorf("%w: flight %s changed since it was read", domain.ErrConcurrentModification, id)
		}
		f.Status = status
		f.Version++
		f.UpdatedAt = r.s.now()
		st.flights[id] = f
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *flightRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.flights[id]; !ok {
			return fmt.Errorf("%w: flight %s", domain.ErrNotFound, id)
		}
		st.deleteBookings(func(b domain.Booking) bool { return b.FlightID == id })
		delete(st.flights, id)
		return nil
	})
}
