// Package service contains the business logic for the NightSpot matcher.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here: services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/matching"
	"github.com/pkordes/nightspot/internal/metrics"
	"github.com/pkordes/nightspot/internal/repo"
)

// Notifier tells a matched group where and when they meet.
type Notifier interface {
	Notify(ctx context.Context, group []domain.WaitingUser, meetingTime string, venue domain.Venue) error
}

// MatchConfig holds the tunables of the group search.
type MatchConfig struct {
	GroupSize     int
	Threshold     float64
	NotifyTimeout time.Duration
}

// DefaultMatchConfig returns group size 5, threshold 1.0 and a 10s notify timeout.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{GroupSize: 5, Threshold: 1.0, NotifyTimeout: 10 * time.Second}
}

// MatchDeps bundles the collaborators of a MatchService.
// Scoring, Logger and Metrics are optional.
type MatchDeps struct {
	Waiting  repo.WaitingRepo
	Events   repo.EventRepo
	Tx       repo.Transactor
	Venues   VenuePicker
	Notifier Notifier
	Scoring  *ScoringService
	Logger   *slog.Logger
	Metrics  *metrics.Matching
}

// Arrival is a user asking to be matched. Traits wins over Answers when both
// are set; with neither, the user waits with all-zero traits.
type Arrival struct {
	Name        string
	Email       string
	MeetingTime string
	Traits      *domain.Traits
	Answers     []Answer
}

// MatchService places arrivals into the waiting pool and forms groups.
type MatchService struct {
	waiting  repo.WaitingRepo
	events   repo.EventRepo
	tx       repo.Transactor
	venues   VenuePicker
	notifier Notifier
	scoring  *ScoringService
	log      *slog.Logger
	metrics  *metrics.Matching
	cfg      MatchConfig
	newID    func() uuid.UUID
}

// NewMatchService constructs a MatchService.
func NewMatchService(d MatchDeps, cfg MatchConfig) *MatchService {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &MatchService{
		waiting:  d.Waiting,
		events:   d.Events,
		tx:       d.Tx,
		venues:   d.Venues,
		notifier: d.Notifier,
		scoring:  d.Scoring,
		log:      log,
		metrics:  d.Metrics,
		cfg:      cfg,
		newID:    uuid.New,
	}
}

// HandleArrival enqueues the arriving user, then searches the user's slot for
// an eligible group. When one is found the group leaves the pool and an Event
// is returned with status matched; otherwise the user stays queued.
//
// Returns domain.ErrValidation for bad input and domain.ErrSlotFull when the
// slot is at capacity. A match lost to a concurrent arrival is reported as
// queued, not as an error.
func (s *MatchService) HandleArrival(ctx context.Context, a Arrival) (domain.MatchOutcome, error) {
	if err := validateArrival(a); err != nil {
		return domain.MatchOutcome{}, err
	}

	traits, err := s.resolveTraits(ctx, a)
	if err != nil {
		return domain.MatchOutcome{}, err
	}

	user, err := s.waiting.Enqueue(ctx, domain.WaitingUser{
		ID:          s.newID(),
		Name:        strings.TrimSpace(a.Name),
		Email:       strings.TrimSpace(a.Email),
		MeetingTime: strings.TrimSpace(a.MeetingTime),
		Traits:      traits,
	})
	if err != nil {
		return domain.MatchOutcome{}, fmt.Errorf("service.MatchService.HandleArrival: %w", err)
	}
	s.metrics.Arrival()

	queued := domain.MatchOutcome{Status: domain.MatchStatusQueued, User: user}

	pool, err := s.waiting.FetchBySlot(ctx, user.MeetingTime)
	if err != nil {
		return domain.MatchOutcome{}, fmt.Errorf("service.MatchService.HandleArrival: %w", err)
	}

	start := time.Now()
	group := matching.FindEligibleGroup(pool, s.cfg.GroupSize, s.cfg.Threshold)
	s.metrics.ObserveSearch(time.Since(start))

	if group == nil {
		s.metrics.Queued()
		return queued, nil
	}

	event, err := s.formEvent(ctx, user.MeetingTime, group)
	if errors.Is(err, domain.ErrRaceLost) {
		s.log.WarnContext(ctx, "group taken by a concurrent match, leaving user queued",
			"user_id", user.ID, "meeting_time", user.MeetingTime, "error", err)
		s.metrics.RaceLost()
		s.metrics.Queued()
		return queued, nil
	}
	if err != nil {
		return domain.MatchOutcome{}, fmt.Errorf("service.MatchService.HandleArrival: %w", err)
	}

	s.log.InfoContext(ctx, "group matched",
		"event_id", event.ID, "meeting_time", event.MeetingTime,
		"size", len(event.Members), "venue", event.Venue.Name, "notified", event.Notified)
	s.metrics.Matched()

	// A group left over in the slot can complete without the arriving user.
	if !slices.ContainsFunc(event.Members, func(m domain.WaitingUser) bool { return m.ID == user.ID }) {
		s.log.InfoContext(ctx, "matched group excludes arriving user, leaving user queued",
			"user_id", user.ID, "event_id", event.ID)
		s.metrics.Queued()
		return queued, nil
	}
	return domain.MatchOutcome{Status: domain.MatchStatusMatched, User: user, Event: &event}, nil
}

// formEvent removes the group from the pool and records the Event in one
// transaction, then notifies the group once the transaction has committed.
// No lock or connection is held while the notifier runs.
func (s *MatchService) formEvent(ctx context.Context, meetingTime string, group []domain.WaitingUser) (domain.Event, error) {
	event := domain.Event{
		ID:          s.newID(),
		MeetingTime: meetingTime,
		Members:     group,
		Venue:       s.venues.Pick(ctx),
	}

	var created domain.Event
	err := s.tx.WithinTx(ctx, func(waiting repo.WaitingRepo, events repo.EventRepo) error {
		removed, err := waiting.RemoveMatched(ctx, domain.IDs(group))
		if err != nil {
			return err
		}
		if removed != int64(len(group)) {
			return fmt.Errorf("removed %d of %d users: %w", removed, len(group), domain.ErrRaceLost)
		}
		created, err = events.Create(ctx, event)
		return err
	})
	if err != nil {
		return domain.Event{}, err
	}

	if !s.notify(ctx, created) {
		return created, nil
	}
	created.Notified = true
	if err := s.events.MarkNotified(ctx, created.ID); err != nil {
		s.log.WarnContext(ctx, "recording group notification failed",
			"event_id", created.ID, "error", err)
	}
	return created, nil
}

// notify reports whether the group was told about the event. Failures are
// logged and counted, never returned.
func (s *MatchService) notify(ctx context.Context, event domain.Event) bool {
	if s.notifier == nil {
		return false
	}
	if s.cfg.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.NotifyTimeout)
		defer cancel()
	}
	if err := s.notifier.Notify(ctx, event.Members, event.MeetingTime, event.Venue); err != nil {
		s.log.WarnContext(ctx, "group notification failed",
			"event_id", event.ID, "meeting_time", event.MeetingTime, "error", err)
		s.metrics.NotificationFailed()
		return false
	}
	return true
}

func (s *MatchService) resolveTraits(ctx context.Context, a Arrival) (domain.Traits, error) {
	switch {
	case a.Traits != nil:
		return *a.Traits, nil
	case len(a.Answers) > 0 && s.scoring != nil:
		t, err := s.scoring.ScoreAnswers(ctx, a.Answers)
		if err != nil {
			return domain.Traits{}, fmt.Errorf("service.MatchService.HandleArrival: %w", err)
		}
		return t, nil
	default:
		return domain.Traits{}, nil
	}
}

// Lookup reports where a user stands: queued while still in the pool, or
// matched together with the event the user was placed in.
// Returns domain.ErrNotFound if the ID is neither waiting nor matched,
// which includes users removed by ClearWaiting.
func (s *MatchService) Lookup(ctx context.Context, userID uuid.UUID) (domain.MatchOutcome, error) {
	user, err := s.waiting.FindByID(ctx, userID)
	if err == nil {
		return domain.MatchOutcome{Status: domain.MatchStatusQueued, User: user}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.MatchOutcome{}, fmt.Errorf("service.MatchService.Lookup: %w", err)
	}

	event, err := s.events.GetByMember(ctx, userID)
	if err != nil {
		return domain.MatchOutcome{}, fmt.Errorf("service.MatchService.Lookup: %w", err)
	}
	i := slices.IndexFunc(event.Members, func(m domain.WaitingUser) bool { return m.ID == userID })
	if i < 0 {
		return domain.MatchOutcome{}, fmt.Errorf("service.MatchService.Lookup: event %s lacks member %s: %w",
			event.ID, userID, domain.ErrNotFound)
	}
	return domain.MatchOutcome{Status: domain.MatchStatusMatched, User: event.Members[i], Event: &event}, nil
}

// ListWaiting returns the users waiting for meetingTime, or the whole pool
// when meetingTime is empty. Always returns a non-nil slice.
func (s *MatchService) ListWaiting(ctx context.Context, meetingTime string) ([]domain.WaitingUser, error) {
	var (
		users []domain.WaitingUser
		err   error
	)
	if slot := strings.TrimSpace(meetingTime); slot != "" {
		users, err = s.waiting.FetchBySlot(ctx, slot)
	} else {
		users, err = s.waiting.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("service.MatchService.ListWaiting: %w", err)
	}
	if users == nil {
		return []domain.WaitingUser{}, nil
	}
	return users, nil
}

// ClearWaiting empties the pool and reports how many users were removed.
func (s *MatchService) ClearWaiting(ctx context.Context) (int64, error) {
	n, err := s.waiting.ClearAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("service.MatchService.ClearWaiting: %w", err)
	}
	s.log.InfoContext(ctx, "waiting pool cleared", "removed", n)
	return n, nil
}

// GetEvent returns a single event by ID.
// Returns domain.ErrNotFound if no event with that ID exists.
func (s *MatchService) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.MatchService.GetEvent: %w", err)
	}
	return e, nil
}

// ListEvents returns one page of events, newest first, and the total count.
func (s *MatchService) ListEvents(ctx context.Context, p domain.PaginationParams) ([]domain.Event, int64, error) {
	events, total, err := s.events.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.MatchService.ListEvents: %w", err)
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, total, nil
}

// validateArrival enforces the input rules for HandleArrival.
//   - Name, email and meeting time must be non-empty.
//   - Email must parse as a single bare address.
//   - Explicit trait scores must be finite and within [0, 5].
func validateArrival(a Arrival) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	email := strings.TrimSpace(a.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: email %q is not a valid address", domain.ErrValidation, email)
	}
	if strings.TrimSpace(a.MeetingTime) == "" {
		return fmt.Errorf("%w: meeting_time is required", domain.ErrValidation)
	}
	if a.Traits != nil {
		for i, v := range a.Traits.Vector() {
			if math.IsNaN(v) || v < domain.TraitMin || v > domain.TraitMax {
				return fmt.Errorf("%w: %s must be between %g and %g",
					domain.ErrValidation, domain.TraitNames[i], domain.TraitMin, domain.TraitMax)
			}
		}
	}
	return nil
}
