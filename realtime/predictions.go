package realtime

import (
	"sort"
	"strings"

	"github.com/iamawumpas/Metlink-Explorer/metlink"
	"github.com/iamawumpas/Metlink-Explorer/schedule"
)

// At most this many point predictions are retained per stop for display.
const maxPerStop = 3

// FilterPointPredictions narrows one stop's stop-predictions records to a
// route+direction and keeps the most imminent by departure time. Records
// match on route_id or, failing that, on route_short_name
// (case-insensitively), since the predictions resource is inconsistent
// about which it populates.
//
// This source is independent of trip-update matching; the timeline builder
// reconciles the two.
func FilterPointPredictions(records []metlink.StopDeparture, routeID, routeShortName string, directionID int) []Prediction {
	wantID := schedule.NormalizeID(routeID)
	wantName := strings.ToLower(strings.TrimSpace(routeShortName))

	var matched []metlink.StopDeparture
	for _, rec := range records {
		if rec.DirectionID != directionID {
			continue
		}
		if rec.RouteID.String() != wantID {
			if wantName == "" || strings.ToLower(rec.RouteShortName) != wantName {
				continue
			}
		}
		matched = append(matched, rec)
	}

	// Records with no departure time sort last and are dropped by the cap.
	sort.SliceStable(matched, func(i, j int) bool {
		return departureKey(matched[i].DepartureTime) < departureKey(matched[j].DepartureTime)
	})
	if len(matched) > maxPerStop {
		matched = matched[:maxPerStop]
	}

	preds := make([]Prediction, 0, len(matched))
	for _, rec := range matched {
		preds = append(preds, Prediction{
			TripID:        rec.TripID.String(),
			DepartureTime: rec.DepartureTime,
			DelaySeconds:  rec.DelaySeconds,
			IsRealTime:    true,
		})
	}
	return preds
}

func departureKey(t string) string {
	if t == "" {
		return "99:99:99"
	}
	return t
}

// MergePointPredictions overlays point predictions onto matched stop
// predictions: stops that got nothing from trip updates take the point
// predictions for their stop_id instead.
func MergePointPredictions(matched []StopPredictions, byStop map[string][]Prediction) []StopPredictions {
	out := make([]StopPredictions, len(matched))
	copy(out, matched)
	for i := range out {
		if len(out[i].Predictions) > 0 {
			continue
		}
		if preds, ok := byStop[out[i].Stop.StopID]; ok {
			out[i].Predictions = preds
		}
	}
	return out
}
