package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing name, malformed email, trait out of range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrDuplicateID is returned by WaitingRepo.Enqueue when a user with the same
// identifier is already waiting. IDs are generated fresh on every arrival, so
// seeing this means something upstream is broken; it fails the request.
var ErrDuplicateID = errors.New("duplicate identifier")

// ErrSlotFull is returned by WaitingRepo.Enqueue when the meeting-time slot
// already holds the configured maximum number of waiting users.
// Handlers should map this to HTTP 409 Conflict.
var ErrSlotFull = errors.New("meeting time slot is full")

// ErrRaceLost is returned when a concurrent match consumed at least one of
// the users selected for a group before this attempt could remove them.
// MatchService recovers from it by reporting the arrival as queued.
var ErrRaceLost = errors.New("match race lost")

// ErrProviderUnavailable wraps failures of external collaborators (venue
// catalogue, personality scorer, mail relay).
var ErrProviderUnavailable = errors.New("provider unavailable")
