package repository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type PGStore struct {
	pool      *pgxpool.Pool
	db        Querier
	inTx      bool
	txTimeout time.Duration
}

func NewPGStore(pool *pgxpool.Pool, txTimeout time.Duration) *PGStore {
	return &PGStore{pool: pool, db: pool, txTimeout: txTimeout}
}

func (s *PGStore) Users() UserRepository       { return NewUserRepository(s.db) }
func (s *PGStore) Flights() FlightRepository   { return NewFlightRepository(s.db) }
func (s *PGStore) Bookings() BookingRepository { return NewBookingRepository(s.db) }

// WithinTx runs fn in a READ COMMITTED transaction bounded by the store's
// transaction timeout. Seat races are settled by the flight row lock taken
// through FlightRepository.GetForUpdate and by the partial unique index on
// held seats.
func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return translate(ctx, fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(ctx, &PGStore{pool: s.pool, db: tx, inTx: true, txTimeout: s.txTimeout}); err != nil {
		return translate(ctx, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(ctx, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema. It is idempotent.
func Migrate(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ Store = (*PGStore)(nil)
