package realtime

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/iamawumpas/Metlink-Explorer/metlink"
	"github.com/iamawumpas/Metlink-Explorer/schedule"
)

// Match joins the trip-updates feed to a stop pattern. Feed entities whose
// trip belongs to the route+direction contribute one prediction per
// stop_time_update with a departure time; everything else is ignored.
//
// The raw feed may be in either shape DecodeFeedEntities accepts; a
// malformed or empty feed degrades to empty prediction lists for every
// pattern stop rather than failing.
//
// A nil loc renders departure times in the system's local timezone.
func Match(pattern schedule.StopPattern, routeID string, directionID int, trips []metlink.Trip, feed json.RawMessage, loc *time.Location) ([]StopPredictions, MatchStats) {
	if loc == nil {
		loc = time.Local
	}

	results := make([]StopPredictions, len(pattern.Stops))
	byStop := make(map[string]int, len(pattern.Stops))
	for i, s := range pattern.Stops {
		results[i] = StopPredictions{Stop: s}
		byStop[s.StopID] = i
	}

	var stats MatchStats
	if len(feed) == 0 {
		return results, stats
	}
	entities, skipped, err := metlink.DecodeFeedEntities("trip_updates", feed)
	if err != nil {
		stats.Malformed = true
		return results, stats
	}
	stats.Entities = len(entities)
	stats.SkippedEntities = skipped

	targets := schedule.TripIDSet(routeID, directionID, trips)
	for _, entity := range entities {
		update := entity.GetTripUpdate()
		if update == nil {
			continue
		}
		tripID := schedule.NormalizeID(update.GetTrip().GetTripId())
		if _, ok := targets[tripID]; !ok {
			continue
		}
		for _, stu := range update.GetStopTimeUpdate() {
			idx, ok := byStop[schedule.NormalizeID(stu.GetStopId())]
			if !ok {
				continue
			}
			departure := stu.GetDeparture()
			if departure == nil || departure.GetTime() == 0 {
				continue
			}
			ts := departure.GetTime()
			results[idx].Predictions = append(results[idx].Predictions, Prediction{
				TripID:        tripID,
				DepartureTime: time.Unix(ts, 0).In(loc).Format("15:04:05"),
				Timestamp:     ts,
				DelaySeconds:  int(departure.GetDelay()),
				IsRealTime:    true,
			})
			stats.Matched++
		}
	}

	for i := range results {
		preds := results[i].Predictions
		sort.SliceStable(preds, func(a, b int) bool { return preds[a].Timestamp < preds[b].Timestamp })
	}
	return results, stats
}

// CountActiveVehicles counts vehicle-position entities whose trip belongs
// to the route+direction. Malformed feeds count as zero vehicles.
func CountActiveVehicles(routeID string, directionID int, trips []metlink.Trip, feed json.RawMessage) int {
	if len(feed) == 0 {
		return 0
	}
	entities, _, err := metlink.DecodeFeedEntities("vehicle_positions", feed)
	if err != nil {
		return 0
	}
	targets := schedule.TripIDSet(routeID, directionID, trips)
	count := 0
	for _, entity := range entities {
		vehicle := entity.GetVehicle()
		if vehicle == nil {
			continue
		}
		tripID := schedule.NormalizeID(vehicle.GetTrip().GetTripId())
		if _, ok := targets[tripID]; ok {
			count++
		}
	}
	return count
}
