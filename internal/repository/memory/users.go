package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	return r.s.write(ctx, func(st *state) error {
		if _, exists := st.users[user.ID]; exists {
			return fmt.Errorf("%w: user %s already exists", domain.ErrConstraintViolation, user.ID)
		}
		for _, u := range st.users {
			if u.Email == user.Email {
				return fmt.Errorf("%w: email %s already registered", domain.ErrConstraintViolation, user.Email)
			}
		}
		now := r.s.now()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var out domain.User
	err := r.s.read(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.s.read(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return fmt.Errorf("%w: user with email %s", domain.ErrNotFound, email)
	})
	return out, err
}

func (r *userRepo) List(ctx context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, u := range st.users {
			users = append(users, u)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].Email < users[j].Email
	})
	return users, err
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
		}
		st.deleteBookings(func(b domain.Booking) bool { return b.UserID == id })
		delete(st.users, id)
		return nil
	})
}
