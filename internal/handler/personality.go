package handler

import "net/http"

// ScorePersonality handles POST /personality/score.
// Each answer is scored on its own and the traits are averaged.
func (s *Server) ScorePersonality(w http.ResponseWriter, r *http.Request) {
	var body ScoreRequest
	if status, errBody := decodeBody(r, &body); errBody != nil {
		writeJSON(w, status, errBody)
		return
	}

	traits, err := s.scoring.ScoreAnswers(r.Context(), answersToService(body.Answers))
	if err != nil {
		s.writeServiceError(w, r, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{Traits: traitsToResponse(traits)})
}
