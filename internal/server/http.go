package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/scaleworks/libralog/internal/store"
)

const (
	// defaultHistoryLimit is used when /v1/events/recent has no limit param.
	defaultHistoryLimit = 100

	// maxHistoryLimit caps history responses regardless of the requested limit.
	maxHistoryLimit = 1000
)

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *LogServer) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/events/recent", s.handleRecentEvents)
	mux.HandleFunc("GET /v1/events/latest", s.handleLatestEvent)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/devices/latest", s.handleAllDevicesLatest)
	mux.HandleFunc("GET /v1/devices/{id}/latest", s.handleDeviceLatest)
	mux.HandleFunc("GET /v1/devices/{id}/events", s.handleDeviceEvents)
	return corsMiddleware(mux)
}

// corsMiddleware allows browser dashboards on other origins to read the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Last-Event-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles GET /v1/health.
func (s *LogServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var lastSeen int64
	if s.cursor != nil {
		lastSeen = s.cursor()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"last_seen": lastSeen,
	})
}

// handleRecentEvents handles GET /v1/events/recent?limit=N.
func (s *LogServer) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultHistoryLimit)

	events, err := s.store.RecentEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("recent events query failed", "err", err)
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// handleLatestEvent handles GET /v1/events/latest: the single most recent
// record across all devices, by sequence.
func (s *LogServer) handleLatestEvent(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.RecentEvents(r.Context(), 1)
	if err != nil {
		s.logger.Error("latest event query failed", "err", err)
		writeStoreError(w, err)
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusNotFound, "no events recorded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": events[0]})
}

// handleAllDevicesLatest handles GET /v1/devices/latest: the representative
// reading for every tracked device. A device with no events (or a failed
// per-device query) maps to null.
func (s *LogServer) handleAllDevicesLatest(w http.ResponseWriter, r *http.Request) {
	result := s.resolver.LatestAll(r.Context(), s.devices)
	writeJSON(w, http.StatusOK, map[string]any{"devices": result})
}

// handleDeviceLatest handles GET /v1/devices/{id}/latest.
func (s *LogServer) handleDeviceLatest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	event, err := s.resolver.Latest(r.Context(), id)
	if err != nil {
		s.logger.Error("latest-state query failed", "device_id", id, "err", err)
		writeStoreError(w, err)
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "no events for device")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

// handleDeviceEvents handles GET /v1/devices/{id}/events?limit=N.
func (s *LogServer) handleDeviceEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := parseLimit(r, defaultHistoryLimit)

	events, err := s.store.EventsForDevice(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("device events query failed", "device_id", id, "err", err)
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"events":    events,
		"count":     len(events),
	})
}

// parseLimit reads the limit query param, falling back to def and clamping
// to maxHistoryLimit.
func parseLimit(r *http.Request, def int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit
}

// writeStoreError maps a store failure to 503, anything else to 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "event store unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
