package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ListQueue handles GET /queue.
// ?meeting_time= narrows the list to one slot; without it the whole pool is
// returned, grouped by slot in arrival order.
func (s *Server) ListQueue(w http.ResponseWriter, r *http.Request) {
	users, err := s.matches.ListWaiting(r.Context(), r.URL.Query().Get("meeting_time"))
	if err != nil {
		s.writeServiceError(w, r, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, usersToResponse(users))
}

// ClearQueue handles DELETE /queue.
func (s *Server) ClearQueue(w http.ResponseWriter, r *http.Request) {
	n, err := s.matches.ClearWaiting(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, ClearQueueResponse{Removed: n})
}

// GetQueueEntry handles GET /queue/{id}.
// A waiting client polls it with the user ID returned by POST /join: the
// status stays "queued" until the user's group forms, then turns "matched"
// and carries the event.
func (s *Server) GetQueueEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("id must be a UUID"))
		return
	}

	outcome, err := s.matches.Lookup(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "user is neither waiting nor matched")
		return
	}
	writeJSON(w, http.StatusOK, outcomeToResponse(outcome))
}
