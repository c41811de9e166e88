package realtime

import "github.com/iamawumpas/Metlink-Explorer/schedule"

// Prediction is one predicted departure at a stop, derived from a
// real-time trip update.
type Prediction struct {
	TripID        string `json:"trip_id"`
	DepartureTime string `json:"departure_time"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	DelaySeconds  int    `json:"delay_seconds"`
	IsRealTime    bool   `json:"is_real_time"`
}

// StopPredictions pairs one pattern stop with its predicted departures,
// most imminent first. A stop with no matching feed entity keeps an empty
// prediction list; that is expected, not an error.
type StopPredictions struct {
	Stop        schedule.PatternStop `json:"stop"`
	Predictions []Prediction         `json:"predictions"`
}

// MatchStats counts what the matcher saw in one feed pass, for diagnostics.
type MatchStats struct {
	Entities        int
	SkippedEntities int
	Matched         int
	Malformed       bool
}
