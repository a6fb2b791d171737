package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/school-directory/internal/middleware"
)

const appOrigin = "http://localhost:5173"

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func corsRequest(t *testing.T, origins []string, method, target, origin string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	h := middleware.NewCORSHandler(origins)(okHandler)

	req := httptest.NewRequest(method, target, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSHandler_SimpleRequests(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantOrigin string
	}{
		{"allowed origin", []string{appOrigin}, appOrigin, appOrigin},
		{"disallowed origin", []string{appOrigin}, "http://evil.example.com", ""},
		{"no origins configured", nil, appOrigin, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := corsRequest(t, tc.origins, http.MethodGet, "/schools?province=Utrecht", tc.origin, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSHandler_ExposesPagingHeaders(t *testing.T) {
	rec := corsRequest(t, []string{appOrigin}, http.MethodGet, "/schools", appOrigin, nil)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, "X-Total-Count")
	assert.Contains(t, exposed, "X-Request-Id")
}

func TestCORSHandler_Preflight(t *testing.T) {
	tests := []struct {
		method  string
		allowed bool
	}{
		{http.MethodPost, true},
		{http.MethodDelete, true},
		{http.MethodPut, false},
	}

	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			rec := corsRequest(t, []string{appOrigin}, http.MethodOptions, "/clients/01AB", appOrigin, map[string]string{
				"Access-Control-Request-Method": tc.method,
				// Browsers send the header list in lowercase.
				"Access-Control-Request-Headers": "content-type",
			})

			assert.Less(t, rec.Code, 300, "preflight answers 2xx")
			if tc.allowed {
				assert.Equal(t, appOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), tc.method)
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
