package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/service"
)

// Wire types for the JSON API. They mirror the schemas in spec/openapi.yaml.

// ErrorDetail is the machine code and human message of a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error":{...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Answer is one questionnaire response.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// JoinRequest is the body of POST /join. Trait scores are flat fields, as
// the web client sends them; when all four are absent and Answers is set the
// answers are scored instead.
type JoinRequest struct {
	Name         string              `json:"name"`
	Email        openapi_types.Email `json:"email"`
	MeetingTime  string              `json:"meeting_time"`
	Extroversion *float64            `json:"extroversion,omitempty"`
	Openness     *float64            `json:"openness,omitempty"`
	Spontaneity  *float64            `json:"spontaneity,omitempty"`
	EnergyLevel  *float64            `json:"energy_level,omitempty"`
	Answers      []Answer            `json:"answers,omitempty"`
}

// Traits is the wire form of domain.Traits.
type Traits struct {
	Extroversion float64 `json:"extroversion"`
	Openness     float64 `json:"openness"`
	Spontaneity  float64 `json:"spontaneity"`
	EnergyLevel  float64 `json:"energy_level"`
}

// User is a waiting user, or a member snapshot inside an event.
type User struct {
	Id          openapi_types.UUID `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	MeetingTime string             `json:"meeting_time"`
	Traits      Traits             `json:"traits"`
	JoinedAt    time.Time          `json:"joined_at"`
}

// Location is where a matched group meets.
type Location struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Event is a matched group.
type Event struct {
	EventId     openapi_types.UUID `json:"event_id"`
	MeetingTime string             `json:"meeting_time"`
	Users       []User             `json:"users"`
	Location    Location           `json:"location"`
	Notified    bool               `json:"notified"`
	CreatedAt   time.Time          `json:"created_at"`
}

// JoinResponse is the body of POST /join and GET /queue/{id}. Event is
// present only when Status is "matched".
type JoinResponse struct {
	Status string `json:"status"`
	User   User   `json:"user"`
	Event  *Event `json:"event,omitempty"`
}

// ClearQueueResponse is the body of DELETE /queue.
type ClearQueueResponse struct {
	Removed int64 `json:"removed"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// EventList is the body of GET /events.
type EventList struct {
	Data       []Event    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ScoreRequest is the body of POST /personality/score.
type ScoreRequest struct {
	Answers []Answer `json:"answers"`
}

// ScoreResponse is the body of POST /personality/score.
type ScoreResponse struct {
	Traits Traits `json:"traits"`
}

// ---- conversion helpers ----------------------------------------------------

func traitsToResponse(t domain.Traits) Traits {
	return Traits{
		Extroversion: t.Extroversion,
		Openness:     t.Openness,
		Spontaneity:  t.Spontaneity,
		EnergyLevel:  t.EnergyLevel,
	}
}

func userToResponse(u domain.WaitingUser) User {
	return User{
		Id:          openapi_types.UUID(u.ID),
		Name:        u.Name,
		Email:       u.Email,
		MeetingTime: u.MeetingTime,
		Traits:      traitsToResponse(u.Traits),
		JoinedAt:    u.CreatedAt,
	}
}

func usersToResponse(users []domain.WaitingUser) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = userToResponse(u)
	}
	return out
}

func eventToResponse(e domain.Event) Event {
	return Event{
		EventId:     openapi_types.UUID(e.ID),
		MeetingTime: e.MeetingTime,
		Users:       usersToResponse(e.Members),
		Location: Location{
			Name:        e.Venue.Name,
			Address:     e.Venue.Address,
			Type:        e.Venue.Type,
			Description: e.Venue.Description,
		},
		Notified:  e.Notified,
		CreatedAt: e.CreatedAt,
	}
}

func outcomeToResponse(o domain.MatchOutcome) JoinResponse {
	resp := JoinResponse{
		Status: string(o.Status),
		User:   userToResponse(o.User),
	}
	if o.Status == domain.MatchStatusMatched && o.Event != nil {
		e := eventToResponse(*o.Event)
		resp.Event = &e
	}
	return resp
}

func answersToService(in []Answer) []service.Answer {
	if len(in) == 0 {
		return nil
	}
	out := make([]service.Answer, len(in))
	for i, a := range in {
		out[i] = service.Answer{Question: a.Question, Answer: a.Answer}
	}
	return out
}

// requestToArrival maps a JoinRequest to a service.Arrival. Any flat trait
// field marks the traits as explicit; the missing ones default to zero.
func requestToArrival(body JoinRequest) service.Arrival {
	a := service.Arrival{
		Name:        body.Name,
		Email:       string(body.Email),
		MeetingTime: body.MeetingTime,
		Answers:     answersToService(body.Answers),
	}
	if body.Extroversion != nil || body.Openness != nil || body.Spontaneity != nil || body.EnergyLevel != nil {
		a.Traits = &domain.Traits{
			Extroversion: deref(body.Extroversion),
			Openness:     deref(body.Openness),
			Spontaneity:  deref(body.Spontaneity),
			EnergyLevel:  deref(body.EnergyLevel),
		}
	}
	return a
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
