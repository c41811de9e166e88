package metlink

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexID is a GTFS identifier that the API may emit as either a JSON
// string or a JSON number. It always normalizes to its string form, so
// identifiers from different resources compare equal regardless of how
// the upstream chose to encode them.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// Route transportation types used by Metlink (GTFS route_type extended enum).
const (
	RouteTypeTrain     = 2
	RouteTypeBus       = 3
	RouteTypeFerry     = 4
	RouteTypeCableCar  = 5
	RouteTypeSchoolBus = 712
)

// RouteTypeNames maps route_type values to their display names.
var RouteTypeNames = map[int]string{
	RouteTypeTrain:     "Train",
	RouteTypeBus:       "Bus",
	RouteTypeFerry:     "Ferry",
	RouteTypeCableCar:  "Cable Car",
	RouteTypeSchoolBus: "School Bus",
}

// Agency is a single row of the GTFS agency resource.
type Agency struct {
	AgencyID       FlexID `json:"agency_id"`
	AgencyName     string `json:"agency_name"`
	AgencyTimezone string `json:"agency_timezone"`
}

// Route is a single row of the GTFS routes resource. Identity is RouteID.
// RouteDesc, where present, labels direction 1 of the service.
type Route struct {
	RouteID        FlexID `json:"route_id"`
	RouteShortName string `json:"route_short_name"`
	RouteLongName  string `json:"route_long_name"`
	RouteDesc      string `json:"route_desc"`
	RouteType      int    `json:"route_type"`
}

// Trip belongs to exactly one route and one direction.
type Trip struct {
	TripID      FlexID `json:"trip_id"`
	RouteID     FlexID `json:"route_id"`
	DirectionID int    `json:"direction_id"`
}

// StopTime is one scheduled call of a trip at a stop. ArrivalTime and
// DepartureTime are local time-of-day strings ("HH:MM:SS") and may be empty.
type StopTime struct {
	TripID        FlexID `json:"trip_id"`
	StopID        FlexID `json:"stop_id"`
	StopSequence  int    `json:"stop_sequence"`
	ArrivalTime   string `json:"arrival_time"`
	DepartureTime string `json:"departure_time"`
}

// Stop is a single row of the GTFS stops resource.
type Stop struct {
	StopID   FlexID  `json:"stop_id"`
	StopName string  `json:"stop_name"`
	StopLat  float64 `json:"stop_lat"`
	StopLon  float64 `json:"stop_lon"`
}

// StopDeparture is one record of the stop-predictions resource: a near-term
// departure at a stop, keyed by stop rather than trip.
type StopDeparture struct {
	StopID         FlexID `json:"stop_id"`
	RouteID        FlexID `json:"route_id"`
	RouteShortName string `json:"route_short_name"`
	DirectionID    int    `json:"direction_id"`
	TripID         FlexID `json:"trip_id"`
	DepartureTime  string `json:"departure_time"`
	DelaySeconds   int    `json:"delay_seconds"`
}
