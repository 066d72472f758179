package handler

import "net/http"

// Join handles POST /join.
// Returns 201 with the event when the arrival completes a group, otherwise
// 202 with the queued user.
func (s *Server) Join(w http.ResponseWriter, r *http.Request) {
	var body JoinRequest
	if status, errBody := decodeBody(r, &body); errBody != nil {
		writeJSON(w, status, errBody)
		return
	}

	outcome, err := s.matches.HandleArrival(r.Context(), requestToArrival(body))
	if err != nil {
		s.writeServiceError(w, r, err, "not found")
		return
	}

	resp := outcomeToResponse(outcome)
	if resp.Event != nil {
		writeJSON(w, http.StatusCreated, resp)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}
