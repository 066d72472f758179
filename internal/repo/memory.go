package repo

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/nightspot/internal/domain"
)

// SeedVenues is the catalogue loaded by the venues migration and by
// NewMemoryStore.
var SeedVenues = []domain.Venue{
	{Name: "The Barn Steakhouse", Address: "1016 Church St, Evanston, IL 60201", Type: "restaurant", Description: "Upscale steakhouse in a converted barn"},
	{Name: "Bat 17", Address: "1709 Benson Ave, Evanston, IL 60201", Type: "restaurant", Description: "Popular sandwich spot and sports bar"},
	{Name: "World of Beer", Address: "1601 Sherman Ave, Evanston, IL 60201", Type: "bar", Description: "Casual bar with extensive beer selection"},
	{Name: "Celtic Knot Public House", Address: "626 Church St, Evanston, IL 60201", Type: "pub", Description: "Traditional Irish pub with live music"},
	{Name: "La Principal", Address: "700 Main St, Evanston, IL 60202", Type: "restaurant", Description: "Mexican restaurant and bar"},
	{Name: "Found Kitchen & Social House", Address: "1631 Chicago Ave, Evanston, IL 60201", Type: "restaurant", Description: "Farm-to-table American cuisine"},
	{Name: "Prairie Moon", Address: "1635 Chicago Ave, Evanston, IL 60201", Type: "restaurant", Description: "American restaurant and bar"},
	{Name: "Tapville Social", Address: "810 Grove St, Evanston, IL 60201", Type: "bar", Description: "Self-pour tap wall and social house"},
}

// MemoryStore is an in-process implementation of WaitingRepo, EventRepo,
// VenueRepo and Transactor. One mutex serializes every operation, and
// WithinTx holds it for the whole callback, so transactions never interleave.
// Intended for local runs and tests; nothing survives a restart.
type MemoryStore struct {
	mu         sync.Mutex
	maxPerSlot int
	now        func() time.Time

	seq      int64
	waiting  map[uuid.UUID]memWaiting
	events   map[uuid.UUID]domain.Event
	memberOf map[uuid.UUID]uuid.UUID // user ID -> event ID
	venues   []domain.Venue
}

type memWaiting struct {
	user domain.WaitingUser
	seq  int64
}

// NewMemoryStore returns an empty store seeded with SeedVenues.
// maxPerSlot has the same meaning as in NewWaitingRepo.
func NewMemoryStore(maxPerSlot int) *MemoryStore {
	return &MemoryStore{
		maxPerSlot: maxPerSlot,
		now:        func() time.Time { return time.Now().UTC() },
		waiting:    make(map[uuid.UUID]memWaiting),
		events:     make(map[uuid.UUID]domain.Event),
		memberOf:   make(map[uuid.UUID]uuid.UUID),
		venues:     slices.Clone(SeedVenues),
	}
}

// SetVenues replaces the venue catalogue.
func (s *MemoryStore) SetVenues(venues []domain.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues = slices.Clone(venues)
}

// compile-time checks
var (
	_ WaitingRepo = (*MemoryStore)(nil)
	_ EventRepo   = (*MemoryStore)(nil)
	_ VenueRepo   = (*MemoryStore)(nil)
	_ Transactor  = (*MemoryStore)(nil)
)

// WithinTx runs fn against an unlocked view of the store while holding the
// lock, restoring the previous state if fn fails.
func (s *MemoryStore) WithinTx(_ context.Context, fn func(WaitingRepo, EventRepo) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		seq:      s.seq,
		waiting:  maps.Clone(s.waiting),
		events:   maps.Clone(s.events),
		memberOf: maps.Clone(s.memberOf),
	}

	view := &memTx{s: s}
	if err := fn(view, view); err != nil {
		s.seq, s.waiting, s.events, s.memberOf = snap.seq, snap.waiting, snap.events, snap.memberOf
		return err
	}
	return nil
}

type memSnapshot struct {
	seq      int64
	waiting  map[uuid.UUID]memWaiting
	events   map[uuid.UUID]domain.Event
	memberOf map[uuid.UUID]uuid.UUID
}

// Enqueue adds user to the pool, enforcing the per-slot cap.
func (s *MemoryStore) Enqueue(_ context.Context, user domain.WaitingUser) (domain.WaitingUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueueLocked(user)
}

// FetchBySlot returns the users waiting for meetingTime, oldest first.
func (s *MemoryStore) FetchBySlot(_ context.Context, meetingTime string) ([]domain.WaitingUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchLocked(meetingTime), nil
}

// FindByID returns one waiting user.
func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (domain.WaitingUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitingLocked(id)
}

// List returns every waiting user ordered by meeting time, then arrival.
func (s *MemoryStore) List(_ context.Context) ([]domain.WaitingUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(), nil
}

// RemoveMatched deletes the listed users that are still waiting.
func (s *MemoryStore) RemoveMatched(_ context.Context, ids []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ids), nil
}

// ClearAll empties the pool.
func (s *MemoryStore) ClearAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(), nil
}

// Create stores an event and indexes its members.
func (s *MemoryStore) Create(_ context.Context, event domain.Event) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createEventLocked(event)
}

// GetByID returns a copy of one event.
func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventLocked(id)
}

// GetByMember returns the event userID was matched into.
func (s *MemoryStore) GetByMember(_ context.Context, userID uuid.UUID) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventOfLocked(userID)
}

// ListPaged returns one page of events, newest first, and the total count.
func (s *MemoryStore) ListPaged(_ context.Context, p domain.PaginationParams) ([]domain.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, total := s.listEventsLocked(p)
	return page, total, nil
}

// MarkNotified sets the notified flag of one event.
func (s *MemoryStore) MarkNotified(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markNotifiedLocked(id)
}

// Random returns a uniformly chosen venue from the catalogue.
func (s *MemoryStore) Random(_ context.Context) (domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.venues) == 0 {
		return domain.Venue{}, fmt.Errorf("repo.MemoryStore.Random: %w", domain.ErrNotFound)
	}
	return s.venues[rand.IntN(len(s.venues))], nil
}

// --- lock-held helpers -----------------------------------------------------

func (s *MemoryStore) enqueueLocked(user domain.WaitingUser) (domain.WaitingUser, error) {
	if _, ok := s.waiting[user.ID]; ok {
		return domain.WaitingUser{}, fmt.Errorf("repo.MemoryStore.Enqueue: %w", domain.ErrDuplicateID)
	}
	if s.maxPerSlot > 0 && len(s.fetchLocked(user.MeetingTime)) >= s.maxPerSlot {
		return domain.WaitingUser{}, fmt.Errorf("repo.MemoryStore.Enqueue: %w", domain.ErrSlotFull)
	}
	s.seq++
	user.CreatedAt = s.now()
	s.waiting[user.ID] = memWaiting{user: user, seq: s.seq}
	return user, nil
}

func (s *MemoryStore) fetchLocked(meetingTime string) []domain.WaitingUser {
	entries := make([]memWaiting, 0)
	for _, w := range s.waiting {
		if w.user.MeetingTime == meetingTime {
			entries = append(entries, w)
		}
	}
	slices.SortFunc(entries, func(a, b memWaiting) int { return cmp.Compare(a.seq, b.seq) })
	return usersOf(entries)
}

func (s *MemoryStore) waitingLocked(id uuid.UUID) (domain.WaitingUser, error) {
	w, ok := s.waiting[id]
	if !ok {
		return domain.WaitingUser{}, fmt.Errorf("repo.MemoryStore.FindByID: %w", domain.ErrNotFound)
	}
	return w.user, nil
}

func (s *MemoryStore) listLocked() []domain.WaitingUser {
	entries := slices.Collect(maps.Values(s.waiting))
	slices.SortFunc(entries, func(a, b memWaiting) int {
		if c := strings.Compare(a.user.MeetingTime, b.user.MeetingTime); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return usersOf(entries)
}

func (s *MemoryStore) listEventsLocked(p domain.PaginationParams) ([]domain.Event, int64) {
	all := slices.Collect(maps.Values(s.events))
	slices.SortFunc(all, func(a, b domain.Event) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))

	page := make([]domain.Event, 0, end-start)
	for _, e := range all[start:end] {
		page = append(page, cloneEvent(e))
	}
	return page, int64(len(all))
}

func (s *MemoryStore) eventLocked(id uuid.UUID) (domain.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("repo.MemoryStore.GetByID: %w", domain.ErrNotFound)
	}
	return cloneEvent(e), nil
}

func (s *MemoryStore) eventOfLocked(userID uuid.UUID) (domain.Event, error) {
	eventID, ok := s.memberOf[userID]
	if !ok {
		return domain.Event{}, fmt.Errorf("repo.MemoryStore.GetByMember: %w", domain.ErrNotFound)
	}
	return cloneEvent(s.events[eventID]), nil
}

func (s *MemoryStore) markNotifiedLocked(id uuid.UUID) error {
	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("repo.MemoryStore.MarkNotified: %w", domain.ErrNotFound)
	}
	e.Notified = true
	s.events[id] = e
	return nil
}

func (s *MemoryStore) removeLocked(ids []uuid.UUID) int64 {
	var n int64
	for _, id := range ids {
		if _, ok := s.waiting[id]; ok {
			delete(s.waiting, id)
			n++
		}
	}
	return n
}

func (s *MemoryStore) clearLocked() int64 {
	n := int64(len(s.waiting))
	s.waiting = make(map[uuid.UUID]memWaiting)
	return n
}

func (s *MemoryStore) createEventLocked(event domain.Event) (domain.Event, error) {
	if _, ok := s.events[event.ID]; ok {
		return domain.Event{}, fmt.Errorf("repo.MemoryStore.Create: %w", domain.ErrDuplicateID)
	}
	for _, m := range event.Members {
		if _, ok := s.memberOf[m.ID]; ok {
			return domain.Event{}, fmt.Errorf("repo.MemoryStore.Create: user %s: %w", m.ID, domain.ErrDuplicateID)
		}
	}
	event.CreatedAt = s.now()
	event = cloneEvent(event)
	s.events[event.ID] = event
	for _, m := range event.Members {
		s.memberOf[m.ID] = event.ID
	}
	return cloneEvent(event), nil
}

// memTx is the transaction-scoped view handed to WithinTx callbacks.
// The store lock is already held, so its methods skip locking.
type memTx struct {
	s *MemoryStore
}

func (t *memTx) Enqueue(_ context.Context, user domain.WaitingUser) (domain.WaitingUser, error) {
	return t.s.enqueueLocked(user)
}

func (t *memTx) FetchBySlot(_ context.Context, meetingTime string) ([]domain.WaitingUser, error) {
	return t.s.fetchLocked(meetingTime), nil
}

func (t *memTx) FindByID(_ context.Context, id uuid.UUID) (domain.WaitingUser, error) {
	return t.s.waitingLocked(id)
}

func (t *memTx) List(_ context.Context) ([]domain.WaitingUser, error) {
	return t.s.listLocked(), nil
}

func (t *memTx) RemoveMatched(_ context.Context, ids []uuid.UUID) (int64, error) {
	return t.s.removeLocked(ids), nil
}

func (t *memTx) ClearAll(_ context.Context) (int64, error) {
	return t.s.clearLocked(), nil
}

func (t *memTx) Create(_ context.Context, event domain.Event) (domain.Event, error) {
	return t.s.createEventLocked(event)
}

func (t *memTx) GetByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	return t.s.eventLocked(id)
}

func (t *memTx) GetByMember(_ context.Context, userID uuid.UUID) (domain.Event, error) {
	return t.s.eventOfLocked(userID)
}

func (t *memTx) ListPaged(_ context.Context, p domain.PaginationParams) ([]domain.Event, int64, error) {
	page, total := t.s.listEventsLocked(p)
	return page, total, nil
}

func (t *memTx) MarkNotified(_ context.Context, id uuid.UUID) error {
	return t.s.markNotifiedLocked(id)
}

func usersOf(entries []memWaiting) []domain.WaitingUser {
	users := make([]domain.WaitingUser, len(entries))
	for i, w := range entries {
		users[i] = w.user
	}
	return users
}

func cloneEvent(e domain.Event) domain.Event {
	e.Members = slices.Clone(e.Members)
	return e
}
