package schedule

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iamawumpas/Metlink-Explorer/metlink"
)

// StaticSource supplies the GTFS static resources the resolver joins.
type StaticSource interface {
	Trips(ctx context.Context) ([]metlink.Trip, error)
	StopTimes(ctx context.Context, tripID string) ([]metlink.StopTime, error)
	Stops(ctx context.Context) ([]metlink.Stop, error)
}

// Resolver derives stop patterns from static schedule data.
type Resolver struct {
	src    StaticSource
	logger zerolog.Logger
}

// NewResolver builds a resolver over a static data source.
func NewResolver(src StaticSource, logger zerolog.Logger) *Resolver {
	return &Resolver{src: src, logger: logger.With().Str("component", "resolver").Logger()}
}

// Resolve determines the ordered stop sequence for a route+direction.
//
// The first trip in fetch order is taken as representative of the whole
// direction. Trips in the same direction are not checked for identical stop
// sequences, so express/local variants may not all be represented; see
// DESIGN.md for the known limitation.
func (r *Resolver) Resolve(ctx context.Context, routeID string, directionID int) (StopPattern, error) {
	trips, err := r.src.Trips(ctx)
	if err != nil {
		return StopPattern{}, err
	}
	rep, err := RepresentativeTrip(routeID, directionID, trips)
	if err != nil {
		return StopPattern{}, err
	}

	stopTimes, err := r.src.StopTimes(ctx, rep.TripID.String())
	if err != nil {
		return StopPattern{}, err
	}
	stops, err := r.src.Stops(ctx)
	if err != nil {
		return StopPattern{}, err
	}

	pattern := BuildPattern(routeID, directionID, rep, stopTimes, stops)
	for _, dropped := range pattern.DroppedStopIDs {
		r.logger.Warn().
			Str("route_id", routeID).
			Str("stop_id", dropped).
			Msg("stop_time references a stop missing from the stops resource")
	}
	r.logger.Debug().
		Str("route_id", routeID).
		Int("direction_id", directionID).
		Str("trip_id", pattern.TripID).
		Int("stops", len(pattern.Stops)).
		Msg("resolved stop pattern")
	return pattern, nil
}

// NormalizeID trims an identifier for comparison. IDs decoded through
// metlink.FlexID already arrive normalized; caller-supplied identifiers
// pass through here so that both sides of every comparison agree.
func NormalizeID(id string) string { return strings.TrimSpace(id) }

// TripsFor filters trips to a route+direction, preserving fetch order.
func TripsFor(routeID string, directionID int, trips []metlink.Trip) []metlink.Trip {
	want := NormalizeID(routeID)
	var matched []metlink.Trip
	for _, t := range trips {
		if t.RouteID.String() == want && t.DirectionID == directionID {
			matched = append(matched, t)
		}
	}
	return matched
}

// TripIDSet collects the trip_ids of a route+direction for membership tests.
func TripIDSet(routeID string, directionID int, trips []metlink.Trip) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range TripsFor(routeID, directionID, trips) {
		set[t.TripID.String()] = struct{}{}
	}
	return set
}

// RepresentativeTrip picks the trip whose stop_times define the pattern:
// the first direction-matching trip in fetch order. Returns NoTripsError
// when the direction has no service.
func RepresentativeTrip(routeID string, directionID int, trips []metlink.Trip) (metlink.Trip, error) {
	matched := TripsFor(routeID, directionID, trips)
	if len(matched) == 0 {
		return metlink.Trip{}, &NoTripsError{RouteID: NormalizeID(routeID), DirectionID: directionID}
	}
	return matched[0], nil
}

// BuildPattern joins a trip's stop_times to the stops resource, ordered by
// stop_sequence. Stop_times whose stop_id has no stops entry are dropped
// and recorded; the rest of the pattern is still produced.
func BuildPattern(routeID string, directionID int, trip metlink.Trip, stopTimes []metlink.StopTime, stops []metlink.Stop) StopPattern {
	ordered := make([]metlink.StopTime, len(stopTimes))
	copy(ordered, stopTimes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StopSequence < ordered[j].StopSequence
	})

	byID := make(map[string]metlink.Stop, len(stops))
	for _, s := range stops {
		byID[s.StopID.String()] = s
	}

	pattern := StopPattern{
		RouteID:     NormalizeID(routeID),
		DirectionID: directionID,
		TripID:      trip.TripID.String(),
	}
	for _, st := range ordered {
		stop, ok := byID[st.StopID.String()]
		if !ok {
			pattern.DroppedStopIDs = append(pattern.DroppedStopIDs, st.StopID.String())
			continue
		}
		pattern.Stops = append(pattern.Stops, PatternStop{
			StopID:        stop.StopID.String(),
			StopName:      stop.StopName,
			StopLat:       stop.StopLat,
			StopLon:       stop.StopLon,
			StopSequence:  st.StopSequence,
			ArrivalTime:   st.ArrivalTime,
			DepartureTime: st.DepartureTime,
		})
	}
	return pattern
}
