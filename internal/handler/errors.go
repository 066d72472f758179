package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/nightspot/internal/domain"
)

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "event not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure.
// The message is extracted from the wrapped domain.ErrValidation error.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

func slotFullBody() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "slot_full", Message: "this meeting time is full, pick another"}}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.MatchService.HandleArrival: validation error: name is required" -> "name is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 && len(msg) > i+len(marker) {
		return msg[i+len(marker):]
	}
	return msg
}

// writeJSON encodes v with the given status. Encoding errors after the header
// is written cannot be reported to the client and are dropped.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into dst. Failures come back as a
// ready-to-send status and ErrorResponse.
func decodeBody(r *http.Request, dst any) (int, *ErrorResponse) {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return 0, nil
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		body := ErrorResponse{Error: ErrorDetail{
			Code:    "payload_too_large",
			Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
		}}
		return http.StatusRequestEntityTooLarge, &body
	case errors.Is(err, io.EOF):
		body := requestBody("request body is required")
		return http.StatusUnprocessableEntity, &body
	case errors.Is(err, openapi_types.ErrValidationEmail):
		body := requestBody("email is not a valid address")
		return http.StatusUnprocessableEntity, &body
	default:
		body := requestBody("malformed request body: " + err.Error())
		return http.StatusUnprocessableEntity, &body
	}
}

// writeServiceError maps a service error onto the HTTP error envelope.
// notFound is the message used for domain.ErrNotFound.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(notFound))
	case errors.Is(err, domain.ErrSlotFull):
		writeJSON(w, http.StatusConflict, slotFullBody())
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
			Code:    "internal_error",
			Message: "internal server error",
		}})
	}
}
