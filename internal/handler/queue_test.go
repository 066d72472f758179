package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/handler"
)

func TestListQueue_200_FiltersBySlot(t *testing.T) {
	var gotSlot string
	svc := &mockMatchServicer{
		listWaiting: func(_ context.Context, meetingTime string) ([]domain.WaitingUser, error) {
			gotSlot = meetingTime
			return []domain.WaitingUser{userFixture("ana"), userFixture("ben")}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/queue?meeting_time=2025-04-12+19:00", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, slot, gotSlot)

	var resp []handler.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "ana", resp[0].Name)
	assert.Equal(t, 3.0, resp[0].Traits.Openness)
}

func TestListQueue_200_Empty(t *testing.T) {
	svc := &mockMatchServicer{
		listWaiting: func(_ context.Context, _ string) ([]domain.WaitingUser, error) {
			return []domain.WaitingUser{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/queue", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// Must be a JSON array, not null.
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestClearQueue_200(t *testing.T) {
	svc := &mockMatchServicer{
		clearWaiting: func(_ context.Context) (int64, error) { return 4, nil },
	}

	req := httptest.NewRequest(http.MethodDelete, "/queue", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":4}`, rec.Body.String())
}

func TestClearQueue_500(t *testing.T) {
	svc := &mockMatchServicer{
		clearWaiting: func(_ context.Context) (int64, error) { return 0, errors.New("boom") },
	}

	req := httptest.NewRequest(http.MethodDelete, "/queue", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetQueueEntry_200_Queued(t *testing.T) {
	ana := userFixture("ana")
	var gotID uuid.UUID
	svc := &mockMatchServicer{
		lookup: func(_ context.Context, id uuid.UUID) (domain.MatchOutcome, error) {
			gotID = id
			return domain.MatchOutcome{Status: domain.MatchStatusQueued, User: ana}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/queue/"+ana.ID.String(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ana.ID, gotID)

	var resp handler.JoinResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, "ana", resp.User.Name)
	assert.Nil(t, resp.Event)
}

func TestGetQueueEntry_200_Matched(t *testing.T) {
	ana, ben := userFixture("ana"), userFixture("ben")
	event := eventFixture(ana, ben)
	svc := &mockMatchServicer{
		lookup: func(_ context.Context, _ uuid.UUID) (domain.MatchOutcome, error) {
			return domain.MatchOutcome{Status: domain.MatchStatusMatched, User: ana, Event: &event}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/queue/"+ana.ID.String(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.JoinResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "matched", resp.Status)
	require.NotNil(t, resp.Event)
	assert.Equal(t, event.ID, uuid.UUID(resp.Event.EventId))
	assert.Len(t, resp.Event.Users, 2)
	assert.Equal(t, "Bat 17", resp.Event.Location.Name)
}

func TestGetQueueEntry_404(t *testing.T) {
	svc := &mockMatchServicer{
		lookup: func(_ context.Context, _ uuid.UUID) (domain.MatchOutcome, error) {
			return domain.MatchOutcome{}, domain.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/queue/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec.Body).Error.Code)
}

func TestGetQueueEntry_422_BadID(t *testing.T) {
	svc := &mockMatchServicer{
		lookup: func(_ context.Context, _ uuid.UUID) (domain.MatchOutcome, error) {
			t.Fatal("service must not be called for a malformed id")
			return domain.MatchOutcome{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/queue/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
