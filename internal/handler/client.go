package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pkordes/school-directory/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// tagRequest is the body of POST /clients/{id}.
type tagRequest struct {
	Op        string     `json:"op" validate:"required,oneof=add remove"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
}

type clientListResponse struct {
	Data []domain.ClientEntry `json:"data"`
}

// listClients handles GET /clients.
func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	entries, err := s.clients.ListClients(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, clientListResponse{Data: entries})
}

// setClientTag handles POST /clients/{id} with {"op":"add"} or {"op":"remove"}.
// Both operations are idempotent and answer 200; the response says whether
// the tag set changed and which views are stale as a result.
func (s *Server) setClientTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		writeErrorBody(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", `op must be "add" or "remove"`)
		return
	}

	result, err := s.clients.SetTag(r.Context(), domain.TagChange{
		SchoolID:  chi.URLParam(r, "id"),
		Op:        domain.TagOp(req.Op),
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		writeError(w, r, err, "school not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
