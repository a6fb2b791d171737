package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/school-directory/internal/domain"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("handler: encode response", "error", err)
	}
}

// writeErrorBody writes an error response with an explicit code.
func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps a service error onto a status code: undecodable query
// parameters → 400, ErrValidation → 422, ErrNotFound → 404, ErrIntegrity → 409,
// anything else → 500 with a generic message. The caller supplies what
// was being looked up for not-found messages.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		writeErrorBody(w, http.StatusBadRequest, "bad_request", pe.Error())
	case errors.Is(err, domain.ErrValidation):
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "not_found", notFound)
	case errors.Is(err, domain.ErrIntegrity):
		writeErrorBody(w, http.StatusConflict, "integrity_violation", "referenced school does not exist")
	default:
		slog.ErrorContext(r.Context(), "handler: request failed", "path", r.URL.Path, "error", err)
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.ClientService.SetTag: validation error: op must be ..." → "op must be ..."
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}
