// Package domain contains the core data types for the NightSpot matcher.
// This package has no dependencies beyond google/uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// WaitingUser is a user queued for a meeting-time slot.
// It is created on arrival and never modified; it leaves the pool either by
// being matched into an Event or by an administrative clear.
type WaitingUser struct {
	ID          uuid.UUID
	Name        string
	Email       string
	MeetingTime string // opaque slot key, e.g. "2025-04-12 19:00"
	Traits      Traits
	CreatedAt   time.Time
}

// IDs returns the identifiers of users in order.
func IDs(users []WaitingUser) []uuid.UUID {
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
