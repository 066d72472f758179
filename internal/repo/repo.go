// Package repo contains all database access logic for the NightSpot matcher.
// Each resource has its own file with an interface and a Postgres
// implementation; memory.go holds an in-process store satisfying the same
// interfaces. No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// beginner is satisfied by *pgxpool.Pool and pgx.Tx (which opens a savepoint).
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Transactor runs fn with repos bound to a single transaction.
// If fn returns an error every write made through those repos is discarded;
// otherwise they are committed together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(waiting WaitingRepo, events EventRepo) error) error
}

// pgTransactor is the Postgres implementation of Transactor.
type pgTransactor struct {
	db         beginner
	maxPerSlot int
}

// NewTransactor constructs a Transactor that opens transactions on db.
// maxPerSlot is forwarded to the transaction-bound WaitingRepo.
func NewTransactor(db beginner, maxPerSlot int) Transactor {
	return &pgTransactor{db: db, maxPerSlot: maxPerSlot}
}

// WithinTx begins a transaction, runs fn, and commits when fn succeeds.
func (t *pgTransactor) WithinTx(ctx context.Context, fn func(WaitingRepo, EventRepo) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.Transactor.WithinTx: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewWaitingRepo(tx, t.maxPerSlot), NewEventRepo(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.Transactor.WithinTx: commit: %w", err)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}
