package handler

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/school-directory/internal/domain"
)

// filterParams are the query parameters shared by every filtered endpoint.
type filterParams struct {
	Province     *string
	Size         *string
	Denomination *string
	Q            *string
	Levels       *[]string
	ClientsOnly  *bool
}

// bindFilter reads the filter query parameters (form style, exploded, so
// levels may repeat: ?levels=HAVO&levels=VWO). Binding failures are
// malformed requests; unknown level names are validation errors.
func bindFilter(r *http.Request) (domain.Filter, error) {
	var p filterParams
	q := r.URL.Query()
	for _, b := range []struct {
		name string
		dest any
	}{
		{"province", &p.Province},
		{"size", &p.Size},
		{"denomination", &p.Denomination},
		{"q", &p.Q},
		{"levels", &p.Levels},
		{"clients_only", &p.ClientsOnly},
	} {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return domain.Filter{}, &paramError{name: b.name, err: err}
		}
	}

	f := domain.Filter{
		Province:     p.Province,
		SizeCategory: p.Size,
		Denomination: p.Denomination,
		Search:       p.Q,
		ClientsOnly:  p.ClientsOnly != nil && *p.ClientsOnly,
	}
	if p.Levels != nil {
		for _, name := range *p.Levels {
			l, err := domain.ParseLevel(name)
			if err != nil {
				return domain.Filter{}, err
			}
			f.Levels = append(f.Levels, l)
		}
	}
	return f, nil
}

// bindWindow reads the optional offset and limit parameters.
func bindWindow(r *http.Request) (domain.Window, error) {
	var offset, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "offset", q, &offset); err != nil {
		return domain.Window{}, &paramError{name: "offset", err: err}
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		return domain.Window{}, &paramError{name: "limit", err: err}
	}
	if offset != nil && *offset < 0 {
		return domain.Window{}, fmt.Errorf("%w: offset must not be negative", domain.ErrValidation)
	}
	if limit != nil && *limit < 1 {
		return domain.Window{}, fmt.Errorf("%w: limit must be positive", domain.ErrValidation)
	}
	return domain.NewWindow(offset, limit), nil
}

// paramError is a query parameter that could not be decoded.
type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %v", e.name, e.err)
}

func (e *paramError) Unwrap() error { return e.err }
