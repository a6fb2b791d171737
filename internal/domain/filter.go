package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Filter is the closed set of criteria shared by the paginated fetcher
// and the aggregation engine. Every dimension is optional: a nil or blank
// value places no constraint on that dimension.
//
// Categorical filters (Province, SizeCategory, Denomination) are ANDed.
// Levels is ORed internally (a school matches if any requested flag is true)
// and then ANDed with the rest. An empty Levels slice is no constraint.
type Filter struct {
	Province     *string `json:"province,omitempty"`
	SizeCategory *string `json:"size_category,omitempty"`
	Denomination *string `json:"denomination,omitempty"`
	// Search matches a case-insensitive substring of the name or the city.
	Search *string `json:"search,omitempty" validate:"omitempty,max=200"`
	Levels []Level `json:"levels,omitempty" validate:"dive,oneof=PRO VMBO MAVO HAVO VWO BRUGJAAR"`
	// ClientsOnly restricts results to schools present in the tag set.
	ClientsOnly bool `json:"clients_only,omitempty"`
	// GeoOnly restricts results to schools with both coordinates present.
	GeoOnly bool `json:"geo_only,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the filter for unknown level names and oversized search
// terms. Returns an error wrapping ErrValidation.
func (f Filter) Validate() error {
	if err := validate.Struct(f); err != nil {
		return validationError(err)
	}
	return nil
}

// Value returns the trimmed value of an optional string and whether it
// constrains anything. Nil and blank values are absent.
func Value(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	return v, v != ""
}

// Matches evaluates the filter against s in memory. tagged reports whether s
// is currently in the tag set; it only matters when ClientsOnly is set.
// The SQL rendering of the same predicate lives in the repo package.
func (f Filter) Matches(s School, tagged bool) bool {
	if v, ok := Value(f.Province); ok && !eq(s.Province, v) {
		return false
	}
	if v, ok := Value(f.SizeCategory); ok && !eq(s.SizeCategory, v) {
		return false
	}
	if v, ok := Value(f.Denomination); ok && !eq(s.Denomination, v) {
		return false
	}
	if q, ok := Value(f.Search); ok {
		q = strings.ToLower(q)
		if !contains(&s.Name, q) && !contains(s.City, q) {
			return false
		}
	}
	if len(f.Levels) > 0 {
		hit := false
		for _, l := range f.Levels {
			if s.Levels.Has(l) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.ClientsOnly && !tagged {
		return false
	}
	if f.GeoOnly && !s.HasCoordinates() {
		return false
	}
	return true
}

func eq(field *string, want string) bool {
	return field != nil && *field == want
}

func contains(field *string, lowerQuery string) bool {
	return field != nil && strings.Contains(strings.ToLower(*field), lowerQuery)
}

// Window is an optional offset/limit over a result set.
// A nil Limit means no limit.
type Window struct {
	Offset int
	Limit  *int
}

// NewWindow builds a Window from optional query values.
// Negative offsets fall back to 0 and non-positive limits mean "no limit";
// the HTTP layer rejects those before they get here.
func NewWindow(offset, limit *int) Window {
	w := Window{}
	if offset != nil && *offset > 0 {
		w.Offset = *offset
	}
	if limit != nil && *limit > 0 {
		l := *limit
		w.Limit = &l
	}
	return w
}

// Max returns the limit as a row budget where 0 means unbounded.
func (w Window) Max() int {
	if w.Limit == nil {
		return 0
	}
	return *w.Limit
}

// Query is a filtered, windowed read of the directory.
type Query struct {
	Filter Filter
	Window Window
}

// QueryResult carries one window of annotated schools in identifier order.
// Total is the number of schools matching the filter regardless of window.
type QueryResult struct {
	Schools []SchoolView `json:"data"`
	Total   int64        `json:"total"`
}

// validationError turns validator output into a single ErrValidation error
// naming the first offending field.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return fmt.Errorf("%w: %s failed %q", ErrValidation, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
