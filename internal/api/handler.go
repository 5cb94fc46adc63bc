// Package api is the read-only HTTP query surface over the tracker's store.
// It consumes committed state only and never takes the ledger's locks, so
// queries cannot block ingestion.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// ActiveVehicle is one row of GET /active: an active vehicle with its most
// recent sample.
type ActiveVehicle struct {
	ID        string   `json:"id"`
	Operator  string   `json:"operator"` // "Unknown" when no operator is linked
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  float64  `json:"altitude"`
	Speed     *float64 `json:"speed"`
}

// HistorySample is one sample inside GET /history/{vehicleId}.
type HistorySample struct {
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Altitude          float64  `json:"altitude"`
	BarometerAltitude *float64 `json:"barometer_altitude"`
	Speed             *float64 `json:"speed"`
	Timestamp         string   `json:"timestamp"` // RFC 3339
}

// HistorySession is one session inside GET /history/{vehicleId}.
type HistorySession struct {
	Start   string          `json:"start"` // RFC 3339
	End     *string         `json:"end"`   // nil while open
	Samples []HistorySample `json:"samples"`
}

// History is the GET /history/{vehicleId} response.
type History struct {
	ID       string           `json:"id"`
	Sessions []HistorySession `json:"sessions"`
}

// SearchResult is one row of GET /search.
type SearchResult struct {
	ID       string `json:"id"`
	Operator string `json:"operator"`
	Status   string `json:"status"`
}

// Store is the read-only view the handlers consume.
type Store interface {
	// ActiveVehicles lists active vehicles with their latest sample. Vehicles
	// whose open session has no sample yet are omitted.
	ActiveVehicles(ctx context.Context) ([]ActiveVehicle, error)
	// VehicleHistory returns all sessions and samples for the vehicle, or
	// found=false when the external id is unknown.
	VehicleHistory(ctx context.Context, externalID string) (history *History, found bool, err error)
	// Search matches vehicle external ids and operator names, case-insensitive substring.
	Search(ctx context.Context, q string) ([]SearchResult, error)
}

// Pinger reports store reachability for /healthz (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewHandler returns the query API routes.
func NewHandler(store Store, pinger Pinger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /active", handleActive(store))
	mux.HandleFunc("GET /history/{vehicleId}", handleHistory(store))
	mux.HandleFunc("GET /search", handleSearch(store))
	mux.HandleFunc("GET /healthz", handleHealthz(pinger))
	return mux
}

func handleActive(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicles, err := store.ActiveVehicles(r.Context())
		if err != nil {
			writeStoreError(w, "list active vehicles", err)
			return
		}
		if vehicles == nil {
			vehicles = []ActiveVehicle{}
		}
		writeJSON(w, http.StatusOK, vehicles)
	}
}

func handleHistory(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, found, err := store.VehicleHistory(r.Context(), r.PathValue("vehicleId"))
		if err != nil {
			writeStoreError(w, "load history", err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "vehicle not found")
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}

func handleSearch(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := store.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeStoreError(w, "search", err)
			return
		}
		if results == nil {
			results = []SearchResult{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func handleHealthz(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.PingContext(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "store unreachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

// writeStoreError logs the internal fault and answers with a structured body,
// never the raw error.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	log.Printf("api: %s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal storage error")
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// FormatTime renders timestamps the way all responses do.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
