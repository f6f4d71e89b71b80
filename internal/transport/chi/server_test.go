package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/fieldops/trackapi/internal/db"
	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
	"github.com/fieldops/trackapi/internal/domain/resource"
	recordrepo "github.com/fieldops/trackapi/internal/repository/record"
	healthuc "github.com/fieldops/trackapi/internal/usecase/health"
	recorduc "github.com/fieldops/trackapi/internal/usecase/record"
)

// --- Mocks ---

// memStore keeps documents per collection the way the database returns them, _id included.
type memStore struct {
	docs    map[db.Collection][]domain.Record
	findErr error
	pingErr error
}

func (m *memStore) Find(_ context.Context, coll db.Collection, f query.Filter) ([]domain.Record, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := []domain.Record{}
	for _, d := range m.docs[coll] {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func seededStore() *memStore {
	return &memStore{docs: map[db.Collection][]domain.Record{
		{Database: "usetrackingDB", Name: "personnel"}: {
			{"_id": "65f0a1", "id": "P1", "name": "Alice", "location": "HQ", "status": "active", "lastUpdate": "2024-05-01T10:00:00Z"},
			{"_id": "65f0a2", "id": "P2", "name": "Bob", "location": "HQ", "status": "inactive", "lastUpdate": "2024-05-01T11:00:00Z", "radio": "ch-7"},
		},
		{Database: "vehicletrackingDB", Name: "vehicle"}: {
			{"_id": "65f0b1", "id": "V1", "name": "Truck 1", "location": "Depot", "status": "active", "lastUpdate": "2024-05-01T09:30:00Z"},
		},
	}}
}

func newTestServer(t *testing.T, s *memStore) *Server {
	t.Helper()
	reg, err := resource.NewRegistry(resource.Defaults()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewServer(
		recorduc.New(recordrepo.New(s), reg),
		healthuc.New(s),
		zap.NewNop(),
	)
}

func newTestRouter(t *testing.T, s *memStore) http.Handler {
	t.Helper()
	return NewRouter(newTestServer(t, s), zap.NewNop(), nil)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeRecords(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func ids(recs []map[string]any) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		id, _ := r["id"].(string)
		out = append(out, id)
	}
	return out
}

// --- ListRecords ---

func TestListRecords_Filters(t *testing.T) {
	h := newTestRouter(t, seededStore())

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"no filters", "/api/personnel", []string{"P1", "P2"}},
		{"exact match", "/api/personnel?location=HQ&status=active", []string{"P1"}},
		{"no match", "/api/personnel?location=Field", []string{}},
		{"unsupported param ignored", "/api/personnel?color=blue", []string{"P1", "P2"}},
		{"case sensitive", "/api/personnel?status=Active", []string{}},
		{"empty value ignored", "/api/personnel?status=&name=Bob", []string{"P2"}},
		{"lastUpdate filter", "/api/personnel?lastUpdate=2024-05-01T11:00:00Z", []string{"P2"}},
		{"vehicles by id", "/api/vehicles?id=V1", []string{"V1"}},
		{"vehicles no match", "/api/vehicles?status=inactive", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, h, tt.target)
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type: got %q", ct)
			}
			got := ids(decodeRecords(t, rr))
			if len(got) != len(tt.want) {
				t.Fatalf("ids: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ids[%d]: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestListRecords_NoMatchIsEmptyArray(t *testing.T) {
	h := newTestRouter(t, seededStore())

	rr := get(t, h, "/api/vehicles?name=Nope")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body: got %q, want %q", body, "[]\n")
	}
}

func TestListRecords_OmitsInternalKey(t *testing.T) {
	h := newTestRouter(t, seededStore())

	for _, target := range []string{"/api/personnel", "/api/vehicles"} {
		for _, rec := range decodeRecords(t, get(t, h, target)) {
			if _, ok := rec[domain.InternalKeyField]; ok {
				t.Errorf("%s: record %v exposes %s", target, rec["id"], domain.InternalKeyField)
			}
		}
	}
}

func TestListRecords_PassesThroughExtraFields(t *testing.T) {
	h := newTestRouter(t, seededStore())

	recs := decodeRecords(t, get(t, h, "/api/personnel?id=P2"))
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0]["radio"] != "ch-7" {
		t.Errorf("radio: got %v, want ch-7", recs[0]["radio"])
	}
	if len(recs[0]) != 6 {
		t.Errorf("fields: got %d, want 6 (%v)", len(recs[0]), recs[0])
	}
}

func TestListRecords_Idempotent(t *testing.T) {
	h := newTestRouter(t, seededStore())

	first := get(t, h, "/api/personnel?location=HQ").Body.String()
	second := get(t, h, "/api/personnel?location=HQ").Body.String()
	if first != second {
		t.Errorf("responses differ:\n%s\n%s", first, second)
	}
}

func TestListRecords_StorageFailure_500(t *testing.T) {
	s := seededStore()
	s.findErr = &db.Error{Op: db.OpFind, Err: errors.New("server selection timeout")}
	h := newTestRouter(t, s)

	rr := get(t, h, "/api/personnel?status=active")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorResponseCodeInternalError {
		t.Errorf("code: got %s, want %s", errResp.Code, ErrorResponseCodeInternalError)
	}
	if errResp.Message != "internal error" {
		t.Errorf("message leaks internals: %q", errResp.Message)
	}
}

func TestListRecords_UnknownResourceDirect_404(t *testing.T) {
	reg, err := resource.NewRegistry(resource.Defaults()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	srv := NewServer(recorduc.New(recordrepo.New(seededStore()), reg), healthuc.New(seededStore()), zap.NewNop())

	rr := httptest.NewRecorder()
	srv.ListRecords(rr, httptest.NewRequest(http.MethodGet, "/api/drones", http.NoBody), "drones")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorResponseCodeResourceNotFound {
		t.Errorf("code: got %s, want %s", errResp.Code, ErrorResponseCodeResourceNotFound)
	}
}

func TestRoutes_UnregisteredPath_404(t *testing.T) {
	h := newTestRouter(t, seededStore())

	rr := get(t, h, "/api/drones")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorResponseCodeNotFound {
		t.Errorf("code: got %s, want %s", errResp.Code, ErrorResponseCodeNotFound)
	}
}

func TestRoutes_WriteMethod_405(t *testing.T) {
	h := newTestRouter(t, seededStore())

	req := httptest.NewRequest(http.MethodPost, "/api/personnel", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}

func TestRoutes_HeadServedByGet(t *testing.T) {
	h := newTestRouter(t, seededStore())

	req := httptest.NewRequest(http.MethodHead, "/api/personnel?status=active", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", got)
	}
}

// --- CORS ---

func TestRoutes_CORSWithoutOrigin(t *testing.T) {
	h := newTestRouter(t, seededStore())

	for _, target := range []string{"/api/personnel", "/api/vehicles?status=active", "/api/drones"} {
		t.Run(target, func(t *testing.T) {
			rr := get(t, h, target)
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Access-Control-Allow-Origin: got %q, want %q", got, "*")
			}
		})
	}
}

func TestRoutes_CORSOnStorageFailure(t *testing.T) {
	h := newTestRouter(t, &memStore{findErr: errors.New("connection refused")})

	rr := get(t, h, "/api/personnel")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want %q", got, "*")
	}
}

func TestRoutes_CORSOnRecoveredPanic(t *testing.T) {
	panicky := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})
	}
	h := NewRouter(newTestServer(t, seededStore()), zap.NewNop(), nil, panicky)

	req := httptest.NewRequest(http.MethodGet, "/api/personnel", http.NoBody)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want %q", got, "*")
	}
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
		wantDB     string
	}{
		{"healthy", nil, http.StatusOK, "ok", "ok"},
		{"degraded", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seededStore()
			s.pingErr = tt.pingErr
			rr := get(t, newTestRouter(t, s), "/health")

			if rr.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Checks["database"] != tt.wantDB {
				t.Errorf("database check: got %q, want %q", resp.Checks["database"], tt.wantDB)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := get(t, newTestRouter(t, seededStore()), "/metrics")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}
