package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/internal/handler"
)

// mockSchoolServicer is a test double for handler.SchoolServicer.
// Set only the method fields your test needs.
type mockSchoolServicer struct {
	query   func(ctx context.Context, q domain.Query) (domain.QueryResult, error)
	mapView func(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error)
	summary func(ctx context.Context, f domain.Filter, by domain.Dimension, top int) (domain.Summary, error)
	export  func(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error)
	getByID func(ctx context.Context, id string) (domain.SchoolView, error)
	delete  func(ctx context.Context, id string) error
	facets  func(ctx context.Context) (domain.Facets, error)
}

func (m *mockSchoolServicer) Query(ctx context.Context, q domain.Query) (domain.QueryResult, error) {
	return m.query(ctx, q)
}
func (m *mockSchoolServicer) Map(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error) {
	return m.mapView(ctx, f)
}
func (m *mockSchoolServicer) Summary(ctx context.Context, f domain.Filter, by domain.Dimension, top int) (domain.Summary, error) {
	return m.summary(ctx, f, by, top)
}
func (m *mockSchoolServicer) Export(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error) {
	return m.export(ctx, f)
}
func (m *mockSchoolServicer) GetByID(ctx context.Context, id string) (domain.SchoolView, error) {
	return m.getByID(ctx, id)
}
func (m *mockSchoolServicer) Delete(ctx context.Context, id string) error {
	return m.delete(ctx, id)
}
func (m *mockSchoolServicer) Facets(ctx context.Context) (domain.Facets, error) {
	return m.facets(ctx)
}

// compile-time check: mockSchoolServicer must satisfy handler.SchoolServicer.
var _ handler.SchoolServicer = (*mockSchoolServicer)(nil)

// mockClientServicer is a test double for handler.ClientServicer.
type mockClientServicer struct {
	setTag      func(ctx context.Context, ch domain.TagChange) (domain.TagResult, error)
	listClients func(ctx context.Context) ([]domain.ClientEntry, error)
}

func (m *mockClientServicer) SetTag(ctx context.Context, ch domain.TagChange) (domain.TagResult, error) {
	return m.setTag(ctx, ch)
}
func (m *mockClientServicer) ListClients(ctx context.Context) ([]domain.ClientEntry, error) {
	return m.listClients(ctx)
}

var _ handler.ClientServicer = (*mockClientServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into its router.
// This mirrors how main.go wires it in production.
func newHTTPHandler(schools handler.SchoolServicer, clients handler.ClientServicer) http.Handler {
	if schools == nil {
		schools = &mockSchoolServicer{}
	}
	if clients == nil {
		clients = &mockClientServicer{}
	}
	return handler.NewServer(schools, clients).Routes()
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func ptr[T any](v T) *T { return &v }

func schoolView(id string) domain.SchoolView {
	return domain.SchoolView{School: domain.School{ID: id, Name: "School " + id}}
}
