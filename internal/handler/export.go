package handler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/school-directory/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"id", "name", "city", "province", "latitude", "longitude",
	"website", "phone", "has_website", "education_structure", "levels",
	"enrollment_total", "size_category", "denomination", "is_client",
}

// exportSchools handles GET /schools/export. It returns every school
// matching the filter as a flat table: JSON by default, CSV with ?format=csv.
func (s *Server) exportSchools(w http.ResponseWriter, r *http.Request) {
	f, err := bindFilter(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, r, &paramError{name: "format", err: err}, "")
		return
	}
	if format != nil && *format != "csv" && *format != "json" {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", `format must be "csv" or "json"`)
		return
	}

	views, err := s.schools.Export(r.Context(), f)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	if format != nil && *format == "csv" {
		if err := writeCSV(w, views); err != nil {
			// Headers are already sent; the client sees a truncated file.
			slog.ErrorContext(r.Context(), "handler: write csv export", "rows", len(views), "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, schoolListResponse{Data: views})
}

// writeCSV streams views as CSV. Missing values are empty cells; the levels
// column carries the cleaned display list. It returns the first error from
// the underlying writer, e.g. when the client went away mid-download.
func writeCSV(w http.ResponseWriter, views []domain.SchoolView) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schools.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return fmt.Errorf("handler.writeCSV: header: %w", err)
	}
	for _, v := range views {
		if err := cw.Write(csvRecord(v)); err != nil {
			return fmt.Errorf("handler.writeCSV: row %s: %w", v.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("handler.writeCSV: flush: %w", err)
	}
	return nil
}

func csvRecord(v domain.SchoolView) []string {
	return []string{
		v.ID,
		v.Name,
		optString(v.City),
		optString(v.Province),
		optFloat(v.Latitude),
		optFloat(v.Longitude),
		optString(v.Website),
		optString(v.Phone),
		optBool(v.HasWebsite),
		optString(v.EducationStructure),
		v.DisplayLevels(),
		optInt(v.EnrollmentTotal),
		optString(v.SizeCategory),
		optString(v.Denomination),
		strconv.FormatBool(v.IsClient),
	}
}

func optString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func optBool(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
