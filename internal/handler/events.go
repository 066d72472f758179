package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/nightspot/internal/domain"
)

// csvHeaders defines the column names written as the first row of a CSV export.
var csvHeaders = []string{
	"event_id", "meeting_time", "venue_name", "venue_address",
	"notified", "created_at", "member_names", "member_emails",
}

// ListEvents handles GET /events.
// Supports ?page= and ?limit= (defaults: page=1, limit=20, max=100) and
// ?format=csv for a flat export of the same page.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("page must be an integer"))
		return
	}
	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("limit must be an integer"))
		return
	}

	format := q.Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(`format must be "json" or "csv"`))
		return
	}

	params := domain.NewPaginationParams(page, limit)
	events, total, err := s.matches.ListEvents(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err, "not found")
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	if format == "csv" {
		writeCSV(w, events)
		return
	}

	data := make([]Event, len(events))
	for i, e := range events {
		data[i] = eventToResponse(e)
	}
	writeJSON(w, http.StatusOK, EventList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetEvent handles GET /events/{id}.
func (s *Server) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("id must be a UUID"))
		return
	}

	event, err := s.matches.GetEvent(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, eventToResponse(event))
}

// writeCSV encodes events as CSV, one row per event.
// Member names and emails are pipe-separated to keep each event on one line.
func writeCSV(w http.ResponseWriter, events []domain.Event) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// bytes.Buffer.Write never returns an error.
	_ = cw.Write(csvHeaders)
	for _, e := range events {
		_ = cw.Write(eventToCSVRecord(e))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="events.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func eventToCSVRecord(e domain.Event) []string {
	names := make([]string, len(e.Members))
	emails := make([]string, len(e.Members))
	for i, m := range e.Members {
		names[i] = m.Name
		emails[i] = m.Email
	}
	return []string{
		e.ID.String(),
		e.MeetingTime,
		e.Venue.Name,
		e.Venue.Address,
		strconv.FormatBool(e.Notified),
		formatTime(e.CreatedAt),
		strings.Join(names, "|"),
		strings.Join(emails, "|"),
	}
}

// formatTime returns the RFC3339 representation of t, or "" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// optionalInt parses an optional integer query parameter.
// An empty string yields nil so NewPaginationParams applies its default.
func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
