// Package handler implements the HTTP API of the school directory.
// All handlers are methods on Server. They are split into resource-specific
// files (health.go, school.go, client.go, export.go) but share the Server
// struct so they can reach its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/school-directory/internal/domain"
)

// SchoolServicer defines the directory operations the school handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type SchoolServicer interface {
	Query(ctx context.Context, q domain.Query) (domain.QueryResult, error)
	Map(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error)
	Summary(ctx context.Context, f domain.Filter, by domain.Dimension, top int) (domain.Summary, error)
	Export(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error)
	GetByID(ctx context.Context, id string) (domain.SchoolView, error)
	Delete(ctx context.Context, id string) error
	Facets(ctx context.Context) (domain.Facets, error)
}

// ClientServicer defines the tag set operations the client handlers depend on.
type ClientServicer interface {
	SetTag(ctx context.Context, ch domain.TagChange) (domain.TagResult, error)
	ListClients(ctx context.Context) ([]domain.ClientEntry, error)
}

// Server serves every API endpoint.
type Server struct {
	schools SchoolServicer
	clients ClientServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(schools SchoolServicer, clients ClientServicer) *Server {
	return &Server{schools: schools, clients: clients}
}

// Routes returns a chi router with every endpoint mounted. Cross-cutting
// middleware (request IDs, logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.getHealth)
	r.Get("/openapi.yaml", s.getOpenAPI)
	r.Get("/levels", s.getLevels)
	r.Get("/facets", s.getFacets)

	r.Route("/schools", func(r chi.Router) {
		r.Get("/", s.listSchools)
		r.Get("/map", s.getMap)
		r.Get("/summary", s.getSummary)
		r.Get("/export", s.exportSchools)
		r.Get("/{id}", s.getSchool)
		r.Delete("/{id}", s.deleteSchool)
	})

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", s.listClients)
		r.Post("/{id}", s.setClientTag)
	})

	return r
}
