package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/handler"
	"github.com/pkordes/nightspot/internal/service"
)

// mockMatchServicer is a test double for handler.MatchServicer.
// Set only the method fields your test needs.
type mockMatchServicer struct {
	handleArrival func(ctx context.Context, a service.Arrival) (domain.MatchOutcome, error)
	lookup        func(ctx context.Context, userID uuid.UUID) (domain.MatchOutcome, error)
	listWaiting   func(ctx context.Context, meetingTime string) ([]domain.WaitingUser, error)
	clearWaiting  func(ctx context.Context) (int64, error)
	getEvent      func(ctx context.Context, id uuid.UUID) (domain.Event, error)
	listEvents    func(ctx context.Context, p domain.PaginationParams) ([]domain.Event, int64, error)
}

func (m *mockMatchServicer) HandleArrival(ctx context.Context, a service.Arrival) (domain.MatchOutcome, error) {
	return m.handleArrival(ctx, a)
}
func (m *mockMatchServicer) Lookup(ctx context.Context, userID uuid.UUID) (domain.MatchOutcome, error) {
	return m.lookup(ctx, userID)
}
func (m *mockMatchServicer) ListWaiting(ctx context.Context, meetingTime string) ([]domain.WaitingUser, error) {
	return m.listWaiting(ctx, meetingTime)
}
func (m *mockMatchServicer) ClearWaiting(ctx context.Context) (int64, error) {
	return m.clearWaiting(ctx)
}
func (m *mockMatchServicer) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	return m.getEvent(ctx, id)
}
func (m *mockMatchServicer) ListEvents(ctx context.Context, p domain.PaginationParams) ([]domain.Event, int64, error) {
	return m.listEvents(ctx, p)
}

// mockScoringServicer is a test double for handler.ScoringServicer.
type mockScoringServicer struct {
	scoreAnswers func(ctx context.Context, answers []service.Answer) (domain.Traits, error)
}

func (m *mockScoringServicer) ScoreAnswers(ctx context.Context, answers []service.Answer) (domain.Traits, error) {
	return m.scoreAnswers(ctx, answers)
}

// compile-time checks
var (
	_ handler.MatchServicer   = (*mockMatchServicer)(nil)
	_ handler.ScoringServicer = (*mockScoringServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into a chi router,
// the same way main does in production.
func newHTTPHandler(matches handler.MatchServicer, scoring handler.ScoringServicer) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.Handler(handler.NewServer(matches, scoring, nil, log))
}

const slot = "2025-04-12 19:00"

func userFixture(name string) domain.WaitingUser {
	return domain.WaitingUser{
		ID:          uuid.New(),
		Name:        name,
		Email:       name + "@example.com",
		MeetingTime: slot,
		Traits:      domain.Traits{Extroversion: 3, Openness: 3, Spontaneity: 3, EnergyLevel: 3},
		CreatedAt:   time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func eventFixture(members ...domain.WaitingUser) domain.Event {
	return domain.Event{
		ID:          uuid.New(),
		MeetingTime: slot,
		Members:     members,
		Venue: domain.Venue{
			Name:        "Bat 17",
			Address:     "1709 Benson Ave, Evanston, IL 60201",
			Type:        "restaurant",
			Description: "Popular sandwich spot and sports bar",
		},
		Notified:  true,
		CreatedAt: time.Date(2025, 4, 1, 12, 5, 0, 0, time.UTC),
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body io.Reader) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}
