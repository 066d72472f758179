package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/nightspot/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// WaitingRepo defines the persistence operations for the waiting pool.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type WaitingRepo interface {
	// Enqueue inserts a waiting user and returns the persisted record with
	// CreatedAt populated. Returns domain.ErrDuplicateID if the ID is already
	// waiting and domain.ErrSlotFull if the slot is at capacity.
	Enqueue(ctx context.Context, user domain.WaitingUser) (domain.WaitingUser, error)

	// FetchBySlot returns every user waiting for meetingTime in insertion order.
	FetchBySlot(ctx context.Context, meetingTime string) ([]domain.WaitingUser, error)

	// FindByID returns one waiting user.
	// Returns domain.ErrNotFound if the user is not waiting.
	FindByID(ctx context.Context, id uuid.UUID) (domain.WaitingUser, error)

	// List returns the whole pool ordered by meeting time, then insertion order.
	List(ctx context.Context) ([]domain.WaitingUser, error)

	// RemoveMatched deletes the given users if they are still waiting and
	// reports how many rows were removed. IDs that are already gone are
	// ignored, so repeating a call is a no-op.
	RemoveMatched(ctx context.Context, ids []uuid.UUID) (int64, error)

	// ClearAll empties the pool and reports how many users were removed.
	ClearAll(ctx context.Context) (int64, error)
}

// pgWaitingRepo is the Postgres implementation of WaitingRepo.
type pgWaitingRepo struct {
	db         db
	maxPerSlot int
}

// NewWaitingRepo constructs a WaitingRepo backed by the provided db connection.
// maxPerSlot caps how many users may wait for one meeting time; zero or
// negative disables the cap.
func NewWaitingRepo(db db, maxPerSlot int) WaitingRepo {
	return &pgWaitingRepo{db: db, maxPerSlot: maxPerSlot}
}

const waitingColumns = `id, name, email, meeting_time, extroversion, openness, spontaneity, energy_level, created_at`

// Enqueue inserts the user unless its slot is already at capacity.
// The capacity check and insert are one statement, but two concurrent
// inserts can both pass the count, so the cap is approximate under load.
func (r *pgWaitingRepo) Enqueue(ctx context.Context, user domain.WaitingUser) (domain.WaitingUser, error) {
	const q = `
		INSERT INTO waiting_users (id, name, email, meeting_time, extroversion, openness, spontaneity, energy_level)
		SELECT @id::uuid, @name::text, @email::text, @meeting_time::text,
		       @extroversion::double precision, @openness::double precision,
		       @spontaneity::double precision, @energy_level::double precision
		WHERE @max_per_slot::int <= 0
		   OR (SELECT count(*) FROM waiting_users WHERE meeting_time = @meeting_time::text) < @max_per_slot::int
		RETURNING ` + waitingColumns

	args := pgx.NamedArgs{
		"id":           user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"meeting_time": user.MeetingTime,
		"extroversion": user.Traits.Extroversion,
		"openness":     user.Traits.Openness,
		"spontaneity":  user.Traits.Spontaneity,
		"energy_level": user.Traits.EnergyLevel,
		"max_per_slot": r.maxPerSlot,
	}

	result, err := scanWaitingUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
			return domain.WaitingUser{}, fmt.Errorf("repo.WaitingRepo.Enqueue: %w", domain.ErrDuplicateID)
		case errors.Is(err, domain.ErrNotFound):
			// No row inserted: the WHERE clause rejected it.
			return domain.WaitingUser{}, fmt.Errorf("repo.WaitingRepo.Enqueue: %w", domain.ErrSlotFull)
		}
		return domain.WaitingUser{}, fmt.Errorf("repo.WaitingRepo.Enqueue: %w", err)
	}
	return result, nil
}

// FetchBySlot returns the users waiting for meetingTime, oldest first.
// A single SELECT sees one snapshot, so a concurrent enqueue is either fully
// visible or not at all.
func (r *pgWaitingRepo) FetchBySlot(ctx context.Context, meetingTime string) ([]domain.WaitingUser, error) {
	const q = `
		SELECT ` + waitingColumns + `
		FROM waiting_users
		WHERE meeting_time = @meeting_time
		ORDER BY seq`

	users, err := r.queryUsers(ctx, q, pgx.NamedArgs{"meeting_time": meetingTime})
	if err != nil {
		return nil, fmt.Errorf("repo.WaitingRepo.FetchBySlot: %w", err)
	}
	return users, nil
}

// FindByID retrieves a waiting user by primary key.
func (r *pgWaitingRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.WaitingUser, error) {
	const q = `SELECT ` + waitingColumns + ` FROM waiting_users WHERE id = @id`

	u, err := scanWaitingUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.WaitingUser{}, fmt.Errorf("repo.WaitingRepo.FindByID: %w", err)
	}
	return u, nil
}

// List returns every waiting user.
func (r *pgWaitingRepo) List(ctx context.Context) ([]domain.WaitingUser, error) {
	const q = `
		SELECT ` + waitingColumns + `
		FROM waiting_users
		ORDER BY meeting_time, seq`

	users, err := r.queryUsers(ctx, q, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("repo.WaitingRepo.List: %w", err)
	}
	return users, nil
}

// RemoveMatched deletes the listed users that are still present.
// Inside a transaction the deleted rows stay locked until commit, so a
// concurrent RemoveMatched over the same IDs waits and then deletes nothing.
func (r *pgWaitingRepo) RemoveMatched(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const q = `DELETE FROM waiting_users WHERE id = ANY(@ids)`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return 0, fmt.Errorf("repo.WaitingRepo.RemoveMatched: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClearAll deletes every waiting user.
func (r *pgWaitingRepo) ClearAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM waiting_users`)
	if err != nil {
		return 0, fmt.Errorf("repo.WaitingRepo.ClearAll: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgWaitingRepo) queryUsers(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.WaitingUser, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.WaitingUser{}
	for rows.Next() {
		u, err := scanWaitingUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return users, nil
}

// scanWaitingUser maps a single database row into a domain.WaitingUser.
func scanWaitingUser(s scanner) (domain.WaitingUser, error) {
	var (
		u  domain.WaitingUser
		id pgtype.UUID
	)
	err := s.Scan(&id, &u.Name, &u.Email, &u.MeetingTime,
		&u.Traits.Extroversion, &u.Traits.Openness, &u.Traits.Spontaneity, &u.Traits.EnergyLevel,
		&u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WaitingUser{}, domain.ErrNotFound
		}
		return domain.WaitingUser{}, err
	}
	u.ID = uuid.UUID(id.Bytes)
	return u, nil
}
