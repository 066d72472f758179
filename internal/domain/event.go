package domain

import (
	"time"

	"github.com/google/uuid"
)

// Venue is a place where a matched group meets.
type Venue struct {
	Name        string
	Address     string
	Type        string
	Description string
}

// Event is the durable record of one matched group.
// Members are snapshots of the users at the moment they were matched;
// Notified reports whether the group email went out.
type Event struct {
	ID          uuid.UUID
	MeetingTime string
	Members     []WaitingUser
	Venue       Venue
	Notified    bool
	CreatedAt   time.Time
}

// MatchStatus is the result kind of handling one arrival.
type MatchStatus string

const (
	MatchStatusMatched MatchStatus = "matched"
	MatchStatusQueued  MatchStatus = "queued"
)

// MatchOutcome is returned for every accepted arrival.
// Event is nil unless Status is MatchStatusMatched.
type MatchOutcome struct {
	Status MatchStatus
	User   WaitingUser
	Event  *Event
}
