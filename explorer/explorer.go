// Package explorer orchestrates the derivation pipeline: it fans out the
// remote fetches for one refresh cycle, feeds the resolver/matcher/builder
// stages, and retains the last known good timeline per route+direction.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/iamawumpas/Metlink-Explorer/metlink"
	"github.com/iamawumpas/Metlink-Explorer/metrics"
	"github.com/iamawumpas/Metlink-Explorer/realtime"
	"github.com/iamawumpas/Metlink-Explorer/schedule"
	"github.com/iamawumpas/Metlink-Explorer/timeline"
)

// Fetcher abstracts the remote data source. metlink.Client implements it;
// tests substitute fixtures.
type Fetcher interface {
	Routes(ctx context.Context) ([]metlink.Route, error)
	Trips(ctx context.Context) ([]metlink.Trip, error)
	StopTimes(ctx context.Context, tripID string) ([]metlink.StopTime, error)
	Stops(ctx context.Context) ([]metlink.Stop, error)
	TripUpdates(ctx context.Context) (json.RawMessage, error)
	VehiclePositions(ctx context.Context) (json.RawMessage, error)
	StopPredictions(ctx context.Context, stopID string) ([]metlink.StopDeparture, error)
}

// Explorer owns the per-key refresh state. The pipeline stages it drives
// are pure; the only mutable state across cycles is the retained timeline.
type Explorer struct {
	fetcher Fetcher
	logger  zerolog.Logger
	metrics *metrics.Collector
	loc     *time.Location
	now     func() time.Time

	group  singleflight.Group
	mu     sync.RWMutex
	states map[Key]*State
}

// New builds an Explorer. A nil loc evaluates timelines in the system's
// local timezone; a nil collector disables metrics recording.
func New(fetcher Fetcher, collector *metrics.Collector, loc *time.Location, logger zerolog.Logger) *Explorer {
	if loc == nil {
		loc = time.Local
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Explorer{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "explorer").Logger(),
		metrics: collector,
		loc:     loc,
		now:     func() time.Time { return time.Now().In(loc) },
		states:  map[Key]*State{},
	}
}

// State returns the current state for a key. A key never refreshed reports
// StatusNoData with no timeline.
func (e *Explorer) State(key Key) State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if s, ok := e.states[key]; ok {
		return *s
	}
	return State{Status: StatusNoData}
}

// ListRoutes fetches the route set and filters it to one transportation
// type, excluding already-configured route_ids.
func (e *Explorer) ListRoutes(ctx context.Context, routeType int, exclude map[string]struct{}) ([]metlink.Route, error) {
	routes, err := e.fetcher.Routes(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.ListRoutes(routes, routeType, exclude), nil
}

// AvailableTransportTypes reports route counts per transportation type,
// excluding already-configured route_ids.
func (e *Explorer) AvailableTransportTypes(ctx context.Context, exclude map[string]struct{}) (map[int]int, error) {
	routes, err := e.fetcher.Routes(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.AvailableTransportTypes(routes, exclude), nil
}

// Refresh runs one refresh cycle for a key and returns the resulting
// state. Concurrent calls for the same key coalesce into a single flight;
// a failed cycle leaves the previous timeline in place, marked stale.
func (e *Explorer) Refresh(ctx context.Context, key Key) (State, error) {
	type result struct {
		st  State
		err error
	}
	v, _, _ := e.group.Do(key.String(), func() (any, error) {
		st, err := e.refresh(ctx, key)
		return result{st: st, err: err}, nil
	})
	r := v.(result)
	return r.st, r.err
}

func (e *Explorer) refresh(ctx context.Context, key Key) (State, error) {
	start := e.now()
	cycle := uuid.NewString()
	log := e.logger.With().Str("cycle", cycle).Str("route_id", key.RouteID).Int("direction_id", key.DirectionID).Logger()

	var (
		routes []metlink.Route
		trips  []metlink.Trip
		stops  []metlink.Stop

		tripUpdates      json.RawMessage
		vehiclePositions json.RawMessage
		pointRecords     []metlink.StopDeparture
	)

	// Static fetches are fatal to the cycle; real-time fetches degrade to
	// empty data inside their own goroutines and never fail the group.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		routes, err = e.fetcher.Routes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		trips, err = e.fetcher.Trips(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stops, err = e.fetcher.Stops(gctx)
		return err
	})
	g.Go(func() error {
		raw, err := e.fetcher.TripUpdates(gctx)
		if err != nil {
			e.metrics.StageErrors.WithLabelValues("fetch_realtime").Inc()
			log.Warn().Err(err).Msg("trip updates unavailable, continuing with schedule data")
			return nil
		}
		tripUpdates = raw
		return nil
	})
	g.Go(func() error {
		raw, err := e.fetcher.VehiclePositions(gctx)
		if err != nil {
			e.metrics.StageErrors.WithLabelValues("fetch_realtime").Inc()
			log.Warn().Err(err).Msg("vehicle positions unavailable")
			return nil
		}
		vehiclePositions = raw
		return nil
	})
	g.Go(func() error {
		records, err := e.fetcher.StopPredictions(gctx, "")
		if err != nil {
			e.metrics.StageErrors.WithLabelValues("fetch_realtime").Inc()
			log.Warn().Err(err).Msg("stop predictions unavailable")
			return nil
		}
		pointRecords = records
		return nil
	})
	if err := g.Wait(); err != nil {
		e.metrics.StageErrors.WithLabelValues("fetch_static").Inc()
		return e.fail(key, log, err), err
	}
	if ctx.Err() != nil {
		// Cancelled mid-cycle: discard everything, publish nothing.
		return e.fail(key, log, ctx.Err()), ctx.Err()
	}

	rep, err := schedule.RepresentativeTrip(key.RouteID, key.DirectionID, trips)
	if err != nil {
		var noTrips *schedule.NoTripsError
		if errors.As(err, &noTrips) {
			return e.noService(key, log), nil
		}
		e.metrics.StageErrors.WithLabelValues("resolve").Inc()
		return e.fail(key, log, err), err
	}
	stopTimes, err := e.fetcher.StopTimes(ctx, rep.TripID.String())
	if err != nil {
		e.metrics.StageErrors.WithLabelValues("fetch_static").Inc()
		return e.fail(key, log, err), err
	}

	pattern := schedule.BuildPattern(key.RouteID, key.DirectionID, rep, stopTimes, stops)
	for _, dropped := range pattern.DroppedStopIDs {
		e.metrics.StopsDropped.Inc()
		log.Warn().Str("stop_id", dropped).Msg("dropped stop_time with unknown stop_id")
	}

	matched, stats := realtime.Match(pattern, key.RouteID, key.DirectionID, trips, tripUpdates, e.loc)
	if stats.Malformed {
		e.metrics.MalformedFeeds.WithLabelValues("trip_updates").Inc()
		log.Warn().Msg("trip updates feed shape unrecognized, degraded to empty")
	}
	e.metrics.PredictionsMatched.Add(float64(stats.Matched))
	e.metrics.FeedEntitiesSkipped.Add(float64(stats.SkippedEntities))

	merged := realtime.MergePointPredictions(matched, e.pointPredictionsByStop(pattern, routes, pointRecords, key))

	now := e.now()
	tl := timeline.Build(pattern, merged, now)
	tl.ActiveVehicles = realtime.CountActiveVehicles(key.RouteID, key.DirectionID, trips, vehiclePositions)

	if ctx.Err() != nil {
		return e.fail(key, log, ctx.Err()), ctx.Err()
	}

	st := State{Status: StatusFresh, Timeline: &tl, LastSuccess: now}
	e.store(key, st)

	e.metrics.RefreshTotal.WithLabelValues("success").Inc()
	e.metrics.RefreshDuration.Observe(now.Sub(start).Seconds())
	keyLabels := []string{pattern.RouteID, strconv.Itoa(key.DirectionID)}
	e.metrics.TimelineStops.WithLabelValues(keyLabels...).Set(float64(tl.TotalStops))
	e.metrics.RealTimeStops.WithLabelValues(keyLabels...).Set(float64(tl.RealTimeStops))
	e.metrics.ActiveVehicles.WithLabelValues(keyLabels...).Set(float64(tl.ActiveVehicles))
	e.metrics.LastRefreshEpoch.WithLabelValues(keyLabels...).Set(float64(now.Unix()))

	log.Info().
		Int("stops", tl.TotalStops).
		Int("realtime_stops", tl.RealTimeStops).
		Int("matched", stats.Matched).
		Int("vehicles", tl.ActiveVehicles).
		Dur("took", now.Sub(start)).
		Msg("refresh complete")
	return st, nil
}

// pointPredictionsByStop groups the stop-predictions records under each
// pattern stop, filtered to the key's route+direction with the display cap
// applied.
func (e *Explorer) pointPredictionsByStop(pattern schedule.StopPattern, routes []metlink.Route, records []metlink.StopDeparture, key Key) map[string][]realtime.Prediction {
	if len(records) == 0 {
		return nil
	}
	shortName := ""
	for _, r := range routes {
		if r.RouteID.String() == schedule.NormalizeID(key.RouteID) {
			shortName = r.RouteShortName
			break
		}
	}
	grouped := make(map[string][]metlink.StopDeparture)
	for _, rec := range records {
		grouped[rec.StopID.String()] = append(grouped[rec.StopID.String()], rec)
	}
	byStop := make(map[string][]realtime.Prediction)
	for _, ps := range pattern.Stops {
		if recs, ok := grouped[ps.StopID]; ok {
			if preds := realtime.FilterPointPredictions(recs, key.RouteID, shortName, key.DirectionID); len(preds) > 0 {
				byStop[ps.StopID] = preds
			}
		}
	}
	return byStop
}

// noService records the legitimate empty state for a direction with no
// trips: an empty timeline with an explicit marker, not an error.
func (e *Explorer) noService(key Key, log zerolog.Logger) State {
	now := e.now()
	empty := timeline.Build(schedule.StopPattern{RouteID: schedule.NormalizeID(key.RouteID), DirectionID: key.DirectionID}, nil, now)
	st := State{Status: StatusNoService, Timeline: &empty, LastSuccess: now}
	e.store(key, st)
	e.metrics.RefreshTotal.WithLabelValues("no_service").Inc()
	log.Info().Msg("no trips in this direction")
	return st
}

// fail marks the key stale, retaining the last good timeline for display.
func (e *Explorer) fail(key Key, log zerolog.Logger, err error) State {
	e.mu.Lock()
	prev, ok := e.states[key]
	st := State{Status: StatusStale, LastError: err.Error()}
	if ok && prev.Timeline != nil {
		st.Timeline = prev.Timeline
		st.LastSuccess = prev.LastSuccess
	} else {
		st.Status = StatusNoData
	}
	e.states[key] = &st
	e.mu.Unlock()

	e.metrics.RefreshTotal.WithLabelValues("failure").Inc()
	log.Error().Err(err).Msg("refresh failed")
	return st
}

func (e *Explorer) store(key Key, st State) {
	e.mu.Lock()
	e.states[key] = &st
	e.mu.Unlock()
}
