package timeline

// Stop is one display-ready entry of a timeline.
type Stop struct {
	StopID          string  `json:"stop_id"`
	StopName        string  `json:"stop_name"`
	StopLat         float64 `json:"stop_lat"`
	StopLon         float64 `json:"stop_lon"`
	StopSequence    int     `json:"stop_sequence"`
	ScheduledTime   string  `json:"scheduled_time,omitempty"`
	NextDeparture   string  `json:"next_departure,omitempty"`
	ETADisplay      string  `json:"eta_display"`
	ETASeconds      int     `json:"eta_seconds"`
	PredictionCount int     `json:"prediction_count"`
	HasRealTime     bool    `json:"has_real_time"`
	IsDeparture     bool    `json:"is_departure"`
	IsDestination   bool    `json:"is_destination"`
	IsHub           bool    `json:"is_hub"`
}

// Timeline is the ordered, ETA-annotated stop sequence handed to the
// presentation layer. DepartureStop and DestinationStop reference the first
// and last entries of Stops; HubStops is the subsequence flagged as
// interchanges.
type Timeline struct {
	RouteID         string `json:"route_id"`
	DirectionID     int    `json:"direction_id"`
	CurrentTime     string `json:"current_time"`
	Stops           []Stop `json:"stops"`
	TotalStops      int    `json:"total_stops"`
	RealTimeStops   int    `json:"real_time_stops"`
	DepartureStop   *Stop  `json:"departure_stop,omitempty"`
	DestinationStop *Stop  `json:"destination_stop,omitempty"`
	HubStops        []Stop `json:"hub_stops,omitempty"`
	ActiveVehicles  int    `json:"active_vehicles"`
}
