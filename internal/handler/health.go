package handler

import (
	"net/http"

	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/spec"
)

type healthResponse struct {
	Status string `json:"status"`
}

// getHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// getOpenAPI handles GET /openapi.yaml.
func (s *Server) getOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}

type levelsResponse struct {
	Data []domain.Level `json:"data"`
}

// getLevels handles GET /levels. Only the user-selectable levels are
// offered; excluded levels stay filterable through the API but are not listed.
func (s *Server) getLevels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, levelsResponse{Data: domain.SelectableLevels()})
}
