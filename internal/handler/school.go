package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/school-directory/internal/domain"
)

type schoolListResponse struct {
	Data []domain.SchoolView `json:"data"`
}

// listSchools handles GET /schools.
// The full match count is returned in the body and in X-Total-Count.
func (s *Server) listSchools(w http.ResponseWriter, r *http.Request) {
	f, err := bindFilter(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	win, err := bindWindow(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	result, err := s.schools.Query(r.Context(), domain.Query{Filter: f, Window: win})
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	writeJSON(w, http.StatusOK, result)
}

// getMap handles GET /schools/map: the filtered schools that can be placed
// on a map.
func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	f, err := bindFilter(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	views, err := s.schools.Map(r.Context(), f)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, schoolListResponse{Data: views})
}

// getSummary handles GET /schools/summary?group_by=province&top=10.
func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	f, err := bindFilter(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	var (
		groupBy *string
		top     *int
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "group_by", q, &groupBy); err != nil {
		writeError(w, r, &paramError{name: "group_by", err: err}, "")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "top", q, &top); err != nil {
		writeError(w, r, &paramError{name: "top", err: err}, "")
		return
	}

	by, err := domain.ParseDimension(optString(groupBy))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	n := 0
	if top != nil {
		n = *top
	}

	sum, err := s.schools.Summary(r.Context(), f, by, n)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// getSchool handles GET /schools/{id}.
func (s *Server) getSchool(w http.ResponseWriter, r *http.Request) {
	view, err := s.schools.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "school not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// deleteSchool handles DELETE /schools/{id}. The school's client tag, if
// any, is removed with it.
func (s *Server) deleteSchool(w http.ResponseWriter, r *http.Request) {
	if err := s.schools.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "school not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getFacets handles GET /facets: the values offered by the filter dropdowns.
func (s *Server) getFacets(w http.ResponseWriter, r *http.Request) {
	f, err := s.schools.Facets(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, f)
}
