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

// EventRepo defines the persistence operations for matched-group Events.
type EventRepo interface {
	// Create inserts an event and its member snapshots and returns the
	// persisted record with CreatedAt populated. A user that already belongs
	// to another event yields domain.ErrDuplicateID.
	Create(ctx context.Context, event domain.Event) (domain.Event, error)

	// GetByID retrieves a single event with its members.
	// Returns domain.ErrNotFound if no event with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Event, error)

	// GetByMember retrieves the event the given user was matched into.
	// Returns domain.ErrNotFound if the user belongs to no event.
	GetByMember(ctx context.Context, userID uuid.UUID) (domain.Event, error)

	// ListPaged returns one page of events, newest first, and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Event, int64, error)

	// MarkNotified records that the event's group has been told where to meet.
	// Returns domain.ErrNotFound if no event with that ID exists.
	MarkNotified(ctx context.Context, id uuid.UUID) error
}

// pgEventRepo is the Postgres implementation of EventRepo.
type pgEventRepo struct {
	db db
}

// NewEventRepo constructs an EventRepo backed by the provided db connection.
// Create issues several statements; pass a pgx.Tx (see Transactor) when they
// must land together.
func NewEventRepo(db db) EventRepo {
	return &pgEventRepo{db: db}
}

// Create inserts the events row, then one event_members row per member.
func (r *pgEventRepo) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	const insertEvent = `
		INSERT INTO events (id, meeting_time, venue_name, venue_address, venue_type, venue_description, notified)
		VALUES (@id, @meeting_time, @venue_name, @venue_address, @venue_type, @venue_description, @notified)
		RETURNING created_at`

	args := pgx.NamedArgs{
		"id":                event.ID,
		"meeting_time":      event.MeetingTime,
		"venue_name":        event.Venue.Name,
		"venue_address":     event.Venue.Address,
		"venue_type":        event.Venue.Type,
		"venue_description": event.Venue.Description,
		"notified":          event.Notified,
	}
	if err := r.db.QueryRow(ctx, insertEvent, args).Scan(&event.CreatedAt); err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.Create: %w", mapUnique(err))
	}

	const insertMember = `
		INSERT INTO event_members (event_id, position, user_id, name, email,
		                           extroversion, openness, spontaneity, energy_level, joined_at)
		VALUES (@event_id, @position, @user_id, @name, @email,
		        @extroversion, @openness, @spontaneity, @energy_level, @joined_at)`

	for i, m := range event.Members {
		_, err := r.db.Exec(ctx, insertMember, pgx.NamedArgs{
			"event_id":     event.ID,
			"position":     i,
			"user_id":      m.ID,
			"name":         m.Name,
			"email":        m.Email,
			"extroversion": m.Traits.Extroversion,
			"openness":     m.Traits.Openness,
			"spontaneity":  m.Traits.Spontaneity,
			"energy_level": m.Traits.EnergyLevel,
			"joined_at":    m.CreatedAt,
		})
		if err != nil {
			return domain.Event{}, fmt.Errorf("repo.EventRepo.Create: member %d: %w", i, mapUnique(err))
		}
	}
	return event, nil
}

// GetByID retrieves an event by primary key together with its members.
func (r *pgEventRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	const q = `
		SELECT id, meeting_time, venue_name, venue_address, venue_type, venue_description, notified, created_at
		FROM events
		WHERE id = @id`

	event, err := scanEvent(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.GetByID: %w", err)
	}

	members, err := r.membersOf(ctx, []uuid.UUID{id})
	if err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.GetByID: %w", err)
	}
	event.Members = members[id]
	return event, nil
}

// GetByMember finds the event through the member's UNIQUE user_id row.
func (r *pgEventRepo) GetByMember(ctx context.Context, userID uuid.UUID) (domain.Event, error) {
	var eventID pgtype.UUID
	err := r.db.QueryRow(ctx,
		`SELECT event_id FROM event_members WHERE user_id = @user_id`,
		pgx.NamedArgs{"user_id": userID},
	).Scan(&eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, fmt.Errorf("repo.EventRepo.GetByMember: %w", domain.ErrNotFound)
		}
		return domain.Event{}, fmt.Errorf("repo.EventRepo.GetByMember: %w", err)
	}

	event, err := r.GetByID(ctx, uuid.UUID(eventID.Bytes))
	if err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.GetByMember: %w", err)
	}
	return event, nil
}

// MarkNotified flips the notified flag of one event.
func (r *pgEventRepo) MarkNotified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE events SET notified = true WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.EventRepo.MarkNotified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.EventRepo.MarkNotified: %w", domain.ErrNotFound)
	}
	return nil
}

// ListPaged returns one page of events ordered by created_at descending and
// the total number of events.
func (r *pgEventRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Event, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.EventRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT id, meeting_time, venue_name, venue_address, venue_type, venue_description, notified, created_at
		FROM events
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.EventRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.EventRepo.ListPaged: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.EventRepo.ListPaged: rows: %w", err)
	}
	rows.Close()

	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	members, err := r.membersOf(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.EventRepo.ListPaged: %w", err)
	}
	for i := range events {
		events[i].Members = members[events[i].ID]
	}
	return events, total, nil
}

// membersOf loads the member snapshots of the given events keyed by event ID,
// each list in group order.
func (r *pgEventRepo) membersOf(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]domain.WaitingUser, error) {
	out := make(map[uuid.UUID][]domain.WaitingUser, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}

	const q = `
		SELECT m.event_id, m.user_id, m.name, m.email,
		       m.extroversion, m.openness, m.spontaneity, m.energy_level, m.joined_at, e.meeting_time
		FROM event_members m
		JOIN events e ON e.id = m.event_id
		WHERE m.event_id = ANY(@ids)
		ORDER BY m.event_id, m.position`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": eventIDs})
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID, userID pgtype.UUID
			u               domain.WaitingUser
		)
		err := rows.Scan(&eventID, &userID, &u.Name, &u.Email,
			&u.Traits.Extroversion, &u.Traits.Openness, &u.Traits.Spontaneity, &u.Traits.EnergyLevel,
			&u.CreatedAt, &u.MeetingTime)
		if err != nil {
			return nil, fmt.Errorf("members: scan: %w", err)
		}
		u.ID = uuid.UUID(userID.Bytes)
		key := uuid.UUID(eventID.Bytes)
		out[key] = append(out[key], u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("members: rows: %w", err)
	}
	return out, nil
}

// scanEvent maps an events row (without members) into a domain.Event.
func scanEvent(s scanner) (domain.Event, error) {
	var (
		e  domain.Event
		id pgtype.UUID
	)
	err := s.Scan(&id, &e.MeetingTime,
		&e.Venue.Name, &e.Venue.Address, &e.Venue.Type, &e.Venue.Description,
		&e.Notified, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrNotFound
		}
		return domain.Event{}, err
	}
	e.ID = uuid.UUID(id.Bytes)
	return e, nil
}

// mapUnique converts a unique-constraint violation into domain.ErrDuplicateID.
func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateID
	}
	return err
}
