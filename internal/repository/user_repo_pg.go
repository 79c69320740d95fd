package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, created_at, updated_at`

type PGUserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (id, first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return translate(ctx, fmt.Errorf("insert user: %w", err))
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, translate(ctx, err)
	}
	return u, nil
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user with email %s", domain.ErrNotFound, email)
	}
	if err != nil {
		return nil, translate(ctx, err)
	}
	return u, nil
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, translate(ctx, err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate(ctx, err)
		}
		users = append(users, *u)
	}
	return users, translate(ctx, rows.Err())
}

// Delete issues the cascade explicitly, tickets first. Callers run it inside
// Store.WithinTx.
func (r *PGUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE booking_id IN (SELECT id FROM bookings WHERE user_id=$1)`, id); err != nil {
		return translate(ctx, fmt.Errorf("delete user tickets: %w", err))
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE user_id=$1`, id); err != nil {
		return translate(ctx, fmt.Errorf("delete user bookings: %w", err))
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translate(ctx, fmt.Errorf("delete user: %w", err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
