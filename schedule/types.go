package schedule

import "fmt"

// PatternStop is one stop of a pattern: the GTFS stop merged with the
// representative trip's scheduled call at it.
type PatternStop struct {
	StopID        string  `json:"stop_id"`
	StopName      string  `json:"stop_name"`
	StopLat       float64 `json:"stop_lat"`
	StopLon       float64 `json:"stop_lon"`
	StopSequence  int     `json:"stop_sequence"`
	ArrivalTime   string  `json:"arrival_time,omitempty"`
	DepartureTime string  `json:"departure_time,omitempty"`
}

// StopPattern is the ordered sequence of stops a representative trip on a
// route+direction visits. Stops hold monotonically non-decreasing
// stop_sequence values; the first element is the origin and the last the
// destination.
//
// DroppedStopIDs lists stop_times whose stop_id had no entry in the stops
// resource; they are excluded from Stops but recorded for diagnostics.
type StopPattern struct {
	RouteID        string        `json:"route_id"`
	DirectionID    int           `json:"direction_id"`
	TripID         string        `json:"trip_id"`
	Stops          []PatternStop `json:"stops"`
	DroppedStopIDs []string      `json:"-"`
}

// NoTripsError reports that a route+direction combination has no trips.
// This is a legitimate empty state (no service in that direction), not a
// transport failure.
type NoTripsError struct {
	RouteID     string
	DirectionID int
}

func (e *NoTripsError) Error() string {
	return fmt.Sprintf("schedule: no trips for route %s direction %d", e.RouteID, e.DirectionID)
}
