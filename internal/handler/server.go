// Package handler implements the HTTP handlers for the NightSpot API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, join.go, events.go, etc.) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/service"
)

// MatchServicer defines the business operations the join, queue and event
// handlers depend on. Defining the interface here (in the consumer package)
// lets handler tests inject a mock without touching storage.
type MatchServicer interface {
	HandleArrival(ctx context.Context, a service.Arrival) (domain.MatchOutcome, error)
	Lookup(ctx context.Context, userID uuid.UUID) (domain.MatchOutcome, error)
	ListWaiting(ctx context.Context, meetingTime string) ([]domain.WaitingUser, error)
	ClearWaiting(ctx context.Context) (int64, error)
	GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error)
	ListEvents(ctx context.Context, p domain.PaginationParams) ([]domain.Event, int64, error)
}

// ScoringServicer defines the questionnaire scoring operation.
type ScoringServicer interface {
	ScoreAnswers(ctx context.Context, answers []service.Answer) (domain.Traits, error)
}

// Server holds the dependencies of every API endpoint.
// Wire it in main via Handler or HandlerFromMux.
type Server struct {
	matches MatchServicer
	scoring ScoringServicer
	metrics http.Handler
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// metricsHandler may be nil, in which case /metrics is not routed.
func NewServer(matches MatchServicer, scoring ScoringServicer, metricsHandler http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{matches: matches, scoring: scoring, metrics: metricsHandler, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Handler returns a chi router with every API route registered.
func Handler(s *Server) http.Handler {
	return HandlerFromMux(s, chi.NewRouter())
}

// HandlerFromMux registers the API routes on r and returns it.
func HandlerFromMux(s *Server, r chi.Router) http.Handler {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	if s.matches != nil {
		r.Post("/join", s.Join)
		r.Get("/queue", s.ListQueue)
		r.Delete("/queue", s.ClearQueue)
		r.Get("/queue/{id}", s.GetQueueEntry)
		r.Get("/events", s.ListEvents)
		r.Get("/events/{id}", s.GetEvent)
	}
	if s.scoring != nil {
		r.Post("/personality/score", s.ScorePersonality)
	}
	return r
}
