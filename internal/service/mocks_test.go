package service_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/repo"
	"github.com/pkordes/nightspot/internal/service"
)

// ---- mock repos ------------------------------------------------------------

// mockWaitingRepo is a hand-written test double for repo.WaitingRepo.
type mockWaitingRepo struct {
	enqueue       func(ctx context.Context, u domain.WaitingUser) (domain.WaitingUser, error)
	fetchBySlot   func(ctx context.Context, slot string) ([]domain.WaitingUser, error)
	findByID      func(ctx context.Context, id uuid.UUID) (domain.WaitingUser, error)
	list          func(ctx context.Context) ([]domain.WaitingUser, error)
	removeMatched func(ctx context.Context, ids []uuid.UUID) (int64, error)
	clearAll      func(ctx context.Context) (int64, error)
}

func (m *mockWaitingRepo) Enqueue(ctx context.Context, u domain.WaitingUser) (domain.WaitingUser, error) {
	return m.enqueue(ctx, u)
}
func (m *mockWaitingRepo) FetchBySlot(ctx context.Context, slot string) ([]domain.WaitingUser, error) {
	return m.fetchBySlot(ctx, slot)
}
func (m *mockWaitingRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.WaitingUser, error) {
	return m.findByID(ctx, id)
}
func (m *mockWaitingRepo) List(ctx context.Context) ([]domain.WaitingUser, error) {
	return m.list(ctx)
}
func (m *mockWaitingRepo) RemoveMatched(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return m.removeMatched(ctx, ids)
}
func (m *mockWaitingRepo) ClearAll(ctx context.Context) (int64, error) {
	return m.clearAll(ctx)
}

// mockEventRepo is a hand-written test double for repo.EventRepo.
type mockEventRepo struct {
	create       func(ctx context.Context, e domain.Event) (domain.Event, error)
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Event, error)
	getByMember  func(ctx context.Context, userID uuid.UUID) (domain.Event, error)
	listPaged    func(ctx context.Context, p domain.PaginationParams) ([]domain.Event, int64, error)
	markNotified func(ctx context.Context, id uuid.UUID) error
}

func (m *mockEventRepo) Create(ctx context.Context, e domain.Event) (domain.Event, error) {
	return m.create(ctx, e)
}
func (m *mockEventRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	return m.getByID(ctx, id)
}
func (m *mockEventRepo) GetByMember(ctx context.Context, userID uuid.UUID) (domain.Event, error) {
	return m.getByMember(ctx, userID)
}
func (m *mockEventRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Event, int64, error) {
	return m.listPaged(ctx, p)
}
func (m *mockEventRepo) MarkNotified(ctx context.Context, id uuid.UUID) error {
	return m.markNotified(ctx, id)
}

// mockTransactor hands its own repos to the callback.
type mockTransactor struct {
	waiting repo.WaitingRepo
	events  repo.EventRepo
}

func (m *mockTransactor) WithinTx(_ context.Context, fn func(repo.WaitingRepo, repo.EventRepo) error) error {
	return fn(m.waiting, m.events)
}

// mockVenueRepo is a hand-written test double for repo.VenueRepo.
type mockVenueRepo struct {
	random func(ctx context.Context) (domain.Venue, error)
}

func (m *mockVenueRepo) Random(ctx context.Context) (domain.Venue, error) {
	return m.random(ctx)
}

// compile-time checks
var (
	_ repo.WaitingRepo = (*mockWaitingRepo)(nil)
	_ repo.EventRepo   = (*mockEventRepo)(nil)
	_ repo.Transactor  = (*mockTransactor)(nil)
	_ repo.VenueRepo   = (*mockVenueRepo)(nil)
)

// ---- mock collaborators ----------------------------------------------------

type mockNotifier struct {
	notify func(ctx context.Context, group []domain.WaitingUser, meetingTime string, venue domain.Venue) error
}

func (m *mockNotifier) Notify(ctx context.Context, group []domain.WaitingUser, meetingTime string, venue domain.Venue) error {
	return m.notify(ctx, group, meetingTime, venue)
}

type mockScorer struct {
	score func(ctx context.Context, question, answer string) (domain.Traits, error)
}

func (m *mockScorer) Score(ctx context.Context, question, answer string) (domain.Traits, error) {
	return m.score(ctx, question, answer)
}

var (
	_ service.Notifier = (*mockNotifier)(nil)
	_ service.Scorer   = (*mockScorer)(nil)
)

// ---- helpers ---------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// okNotifier accepts every notification.
func okNotifier() *mockNotifier {
	return &mockNotifier{
		notify: func(context.Context, []domain.WaitingUser, string, domain.Venue) error { return nil },
	}
}
