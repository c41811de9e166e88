package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamawumpas/Metlink-Explorer/explorer"
	"github.com/iamawumpas/Metlink-Explorer/metlink"
	"github.com/iamawumpas/Metlink-Explorer/schedule"
)

type handlers struct {
	explorer *explorer.Explorer
	exclude  map[string]struct{}
	maxAge   time.Duration
	logger   zerolog.Logger
}

type routeEntry struct {
	RouteID        string `json:"route_id"`
	RouteShortName string `json:"route_short_name"`
	RouteLongName  string `json:"route_long_name"`
	RouteType      int    `json:"route_type"`
	TypeName       string `json:"type_name,omitempty"`
	Direction0     string `json:"direction_0"`
	Direction1     string `json:"direction_1"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// transportTypes lists transportation types that still have unconfigured
// routes, with their route counts.
func (h *handlers) transportTypes(w http.ResponseWriter, r *http.Request) {
	counts, err := h.explorer.AvailableTransportTypes(r.Context(), h.exclude)
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	type entry struct {
		RouteType int    `json:"route_type"`
		Name      string `json:"name"`
		Routes    int    `json:"routes"`
	}
	var out []entry
	for routeType, name := range metlink.RouteTypeNames {
		if n := counts[routeType]; n > 0 {
			out = append(out, entry{RouteType: routeType, Name: name, Routes: n})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) routes(w http.ResponseWriter, r *http.Request) {
	routeType, err := strconv.Atoi(r.URL.Query().Get("type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be a route_type integer"})
		return
	}
	routes, err := h.explorer.ListRoutes(r.Context(), routeType, h.exclude)
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	out := make([]routeEntry, 0, len(routes))
	for _, rt := range routes {
		out = append(out, routeEntry{
			RouteID:        rt.RouteID.String(),
			RouteShortName: rt.RouteShortName,
			RouteLongName:  rt.RouteLongName,
			RouteType:      rt.RouteType,
			TypeName:       metlink.RouteTypeNames[rt.RouteType],
			Direction0:     schedule.DirectionLabel(rt, 0),
			Direction1:     schedule.DirectionLabel(rt, 1),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// needsRefresh reports whether the held state should be re-derived before
// answering. A key with no timeline yet always retries, so a failed first
// refresh does not pin the key to no_data after the upstream recovers.
// Settled states (fresh, stale, no_service) retry once they are older than
// the refresh interval; keys on the scheduler stay inside it and skip this.
func (h *handlers) needsRefresh(st explorer.State) bool {
	if st.Status == explorer.StatusNoData {
		return true
	}
	return time.Since(st.LastSuccess) > h.maxAge
}

// timeline returns the current state for a route+direction, refreshing
// synchronously when the held state is absent or aged out; concurrent
// requests for the same key share one flight.
func (h *handlers) timeline(w http.ResponseWriter, r *http.Request) {
	routeID := r.URL.Query().Get("route_id")
	if routeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "route_id is required"})
		return
	}
	directionID := 0
	if d := r.URL.Query().Get("direction_id"); d != "" {
		var err error
		directionID, err = strconv.Atoi(d)
		if err != nil || directionID < 0 || directionID > 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "direction_id must be 0 or 1"})
			return
		}
	}

	key := explorer.Key{RouteID: routeID, DirectionID: directionID}
	st := h.explorer.State(key)
	if h.needsRefresh(st) {
		refreshed, err := h.explorer.Refresh(r.Context(), key)
		if err != nil && refreshed.Timeline == nil {
			h.upstreamError(w, err)
			return
		}
		st = refreshed
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) upstreamError(w http.ResponseWriter, err error) {
	h.logger.Error().Err(err).Msg("upstream request failed")
	status := http.StatusBadGateway
	var te *metlink.TransportError
	if errors.As(err, &te) && te.Status == http.StatusUnauthorized {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
