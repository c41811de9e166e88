// Package timeline combines a stop pattern, real-time predictions, and the
// current time into a display-ready timeline. Build is a pure function:
// identical inputs always yield identical output.
package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iamawumpas/Metlink-Explorer/realtime"
	"github.com/iamawumpas/Metlink-Explorer/schedule"
)

// hubKeywords flag stops as major interchanges by name, matched
// case-insensitively. The town names cover the Wellington service region.
var hubKeywords = []string{
	"station", "interchange", "terminal", "centre", "plaza",
	"wellington", "petone", "lower hutt", "upper hutt", "masterton",
	"johnsonville", "porirua", "paraparaumu", "waikanae",
}

// Build produces the timeline for one stop pattern. Each stop takes its
// most imminent prediction when one exists, otherwise its scheduled
// departure (or arrival) time marked as schedule-derived rather than live.
func Build(pattern schedule.StopPattern, predictions []realtime.StopPredictions, now time.Time) Timeline {
	byStop := make(map[string][]realtime.Prediction, len(predictions))
	for _, sp := range predictions {
		byStop[sp.Stop.StopID] = sp.Predictions
	}

	stops := make([]Stop, 0, len(pattern.Stops))
	for i, ps := range pattern.Stops {
		preds := byStop[ps.StopID]
		scheduled := ps.DepartureTime
		if scheduled == "" {
			scheduled = ps.ArrivalTime
		}

		entry := Stop{
			StopID:          ps.StopID,
			StopName:        ps.StopName,
			StopLat:         ps.StopLat,
			StopLon:         ps.StopLon,
			StopSequence:    ps.StopSequence,
			ScheduledTime:   scheduled,
			PredictionCount: len(preds),
			HasRealTime:     len(preds) > 0,
			IsDeparture:     ps.StopSequence == 0,
			IsDestination:   i == len(pattern.Stops)-1,
			IsHub:           IsHubStop(ps.StopName),
		}

		switch {
		case len(preds) > 0:
			next := preds[0]
			entry.NextDeparture = next.DepartureTime
			if secs, ok := etaSeconds(now, next.DepartureTime); ok {
				entry.ETASeconds = secs
				entry.ETADisplay = FormatETA(secs)
			} else {
				// A departure string that does not parse is shown as-is.
				entry.ETADisplay = next.DepartureTime
			}
		case scheduled != "":
			entry.NextDeparture = scheduled
			entry.ETASeconds, _ = etaSeconds(now, scheduled)
			entry.ETADisplay = "Scheduled: " + scheduled
		default:
			entry.ETADisplay = "No predictions"
		}

		stops = append(stops, entry)
	}

	// Patterns arrive ordered, but a malformed one must never reach the
	// display layer out of order.
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].StopSequence < stops[j].StopSequence })

	tl := Timeline{
		RouteID:     pattern.RouteID,
		DirectionID: pattern.DirectionID,
		CurrentTime: now.Format("15:04:05"),
		Stops:       stops,
		TotalStops:  len(stops),
	}
	for i := range stops {
		if stops[i].HasRealTime {
			tl.RealTimeStops++
		}
		if stops[i].IsHub {
			tl.HubStops = append(tl.HubStops, stops[i])
		}
	}
	if len(stops) > 0 {
		tl.DepartureStop = &stops[0]
		tl.DestinationStop = &stops[len(stops)-1]
	}
	return tl
}

// FormatETA renders a second count for display.
func FormatETA(seconds int) string {
	switch {
	case seconds <= 0:
		return "Due now"
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		minutes := seconds / 60
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
}

// IsHubStop reports whether a stop name marks a major interchange.
func IsHubStop(stopName string) bool {
	name := strings.ToLower(stopName)
	for _, kw := range hubKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// etaSeconds combines a local time-of-day with now's date and returns the
// remaining seconds. An instant already in the past rolls forward one day,
// so a departure just after midnight seen late in the evening yields a
// small positive ETA instead of a large negative one. ok is false when the
// time does not parse.
func etaSeconds(now time.Time, timeOfDay string) (int, bool) {
	dep, ok := combineTimeOfDay(now, timeOfDay)
	if !ok {
		return 0, false
	}
	if dep.Before(now) {
		dep = dep.Add(24 * time.Hour)
	}
	return int(dep.Sub(now) / time.Second), true
}

// combineTimeOfDay anchors an "HH:MM:SS" string to now's date in now's
// location. GTFS allows hours past 23 for post-midnight service; those
// land on the following day naturally.
func combineTimeOfDay(now time.Time, timeOfDay string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(timeOfDay), ":")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	s, errS := strconv.Atoi(parts[2])
	if errH != nil || errM != nil || errS != nil || h < 0 || m < 0 || m > 59 || s < 0 || s > 59 {
		return time.Time{}, false
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second), true
}
