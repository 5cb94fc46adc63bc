package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockStore implements Store for tests.
type mockStore struct {
	active    []ActiveVehicle
	activeErr error
	histories map[string]*History
	histErr   error
	results   []SearchResult
	searchErr error
	gotQuery  string
}

func (m *mockStore) ActiveVehicles(ctx context.Context) ([]ActiveVehicle, error) {
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	return m.active, nil
}

func (m *mockStore) VehicleHistory(ctx context.Context, externalID string) (*History, bool, error) {
	if m.histErr != nil {
		return nil, false, m.histErr
	}
	h, ok := m.histories[externalID]
	return h, ok, nil
}

func (m *mockStore) Search(ctx context.Context, q string) ([]SearchResult, error) {
	m.gotQuery = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error { return m.pingErr }

func doRequest(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestActive_EmptyStore(t *testing.T) {
	handler := NewHandler(&mockStore{}, nil)
	rec := doRequest(t, handler, "/active")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []ActiveVehicle
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("body = %v, want empty list", got)
	}
	// The empty case must serialize as [], not null.
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("raw body = %q, want []", body)
	}
}

func TestActive_ReturnsLatestSamples(t *testing.T) {
	speed := 5.0
	store := &mockStore{active: []ActiveVehicle{
		{ID: "d1", Operator: "pilot_01", Latitude: 1, Longitude: 2, Altitude: 50, Speed: &speed},
		{ID: "d2", Operator: "Unknown", Latitude: 3, Longitude: 4, Altitude: 60},
	}}
	rec := doRequest(t, NewHandler(store, nil), "/active")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []ActiveVehicle
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].ID != "d1" || got[0].Operator != "pilot_01" || *got[0].Speed != 5.0 {
		t.Errorf("first entry = %+v", got[0])
	}
	if got[1].Operator != "Unknown" || got[1].Speed != nil {
		t.Errorf("second entry = %+v, want Unknown operator and null speed", got[1])
	}
}

func TestActive_StoreError(t *testing.T) {
	store := &mockStore{activeErr: errors.New("pq: connection reset")}
	rec := doRequest(t, NewHandler(store, nil), "/active")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] == "" {
		t.Error("error response must carry a structured message")
	}
	if body["message"] == "pq: connection reset" {
		t.Error("raw internal fault must not leak to clients")
	}
}

func TestHistory_UnknownVehicle(t *testing.T) {
	handler := NewHandler(&mockStore{histories: map[string]*History{}}, nil)
	rec := doRequest(t, handler, "/history/ghost")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "vehicle not found" {
		t.Errorf("message = %q, want vehicle not found", body["message"])
	}
}

func TestHistory_KnownVehicle(t *testing.T) {
	end := "2025-03-01T12:00:20Z"
	store := &mockStore{histories: map[string]*History{
		"d1": {ID: "d1", Sessions: []HistorySession{{
			Start: "2025-03-01T12:00:00Z",
			End:   &end,
			Samples: []HistorySample{
				{Latitude: 1, Longitude: 2, Altitude: 50, Timestamp: "2025-03-01T12:00:00Z"},
			},
		}}},
	}}
	rec := doRequest(t, NewHandler(store, nil), "/history/d1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got History
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ID != "d1" || len(got.Sessions) != 1 || len(got.Sessions[0].Samples) != 1 {
		t.Errorf("history = %+v", got)
	}
}

func TestSearch_PassesQuery(t *testing.T) {
	store := &mockStore{results: []SearchResult{{ID: "drone_01", Operator: "pilot_01", Status: "active"}}}
	rec := doRequest(t, NewHandler(store, nil), "/search?q=drone")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.gotQuery != "drone" {
		t.Errorf("query = %q, want drone", store.gotQuery)
	}
	var got []SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got) != 1 || got[0].ID != "drone_01" {
		t.Errorf("results = %+v", got)
	}
}

func TestSearch_EmptyResultIsList(t *testing.T) {
	rec := doRequest(t, NewHandler(&mockStore{}, nil), "/search?q=nothing")
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("raw body = %q, want []", body)
	}
}

func TestHealthz(t *testing.T) {
	testCases := []struct {
		name     string
		pinger   Pinger
		wantCode int
	}{
		{"no pinger", nil, http.StatusOK},
		{"store reachable", &mockPinger{}, http.StatusOK},
		{"store down", &mockPinger{pingErr: errors.New("refused")}, http.StatusServiceUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, NewHandler(&mockStore{}, tc.pinger), "/healthz")
			if rec.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/active", nil)
	rec := httptest.NewRecorder()
	NewHandler(&mockStore{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405 for POST on a read-only surface", rec.Code)
	}
}
