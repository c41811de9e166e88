package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamawumpas/Metlink-Explorer/metlink"
	"github.com/iamawumpas/Metlink-Explorer/metrics"
)

type fakeFetcher struct {
	routes           func(ctx context.Context) ([]metlink.Route, error)
	trips            func(ctx context.Context) ([]metlink.Trip, error)
	stopTimes        func(ctx context.Context, tripID string) ([]metlink.StopTime, error)
	stops            func(ctx context.Context) ([]metlink.Stop, error)
	tripUpdates      func(ctx context.Context) (json.RawMessage, error)
	vehiclePositions func(ctx context.Context) (json.RawMessage, error)
	stopPredictions  func(ctx context.Context, stopID string) ([]metlink.StopDeparture, error)
}

func (f *fakeFetcher) Routes(ctx context.Context) ([]metlink.Route, error) { return f.routes(ctx) }
func (f *fakeFetcher) Trips(ctx context.Context) ([]metlink.Trip, error)   { return f.trips(ctx) }
func (f *fakeFetcher) StopTimes(ctx context.Context, tripID string) ([]metlink.StopTime, error) {
	return f.stopTimes(ctx, tripID)
}
func (f *fakeFetcher) Stops(ctx context.Context) ([]metlink.Stop, error) { return f.stops(ctx) }
func (f *fakeFetcher) TripUpdates(ctx context.Context) (json.RawMessage, error) {
	return f.tripUpdates(ctx)
}
func (f *fakeFetcher) VehiclePositions(ctx context.Context) (json.RawMessage, error) {
	return f.vehiclePositions(ctx)
}
func (f *fakeFetcher) StopPredictions(ctx context.Context, stopID string) ([]metlink.StopDeparture, error) {
	return f.stopPredictions(ctx, stopID)
}

func healthyFetcher() *fakeFetcher {
	return &fakeFetcher{
		routes: func(context.Context) ([]metlink.Route, error) {
			return []metlink.Route{{RouteID: "10", RouteShortName: "HVL", RouteType: metlink.RouteTypeTrain}}, nil
		},
		trips: func(context.Context) ([]metlink.Trip, error) {
			return []metlink.Trip{
				{TripID: "T1", RouteID: "10", DirectionID: 0},
				{TripID: "T2", RouteID: "10", DirectionID: 0},
			}, nil
		},
		stopTimes: func(_ context.Context, tripID string) ([]metlink.StopTime, error) {
			return []metlink.StopTime{
				{TripID: metlink.FlexID(tripID), StopID: "S1", StopSequence: 0, DepartureTime: "06:00:00"},
				{TripID: metlink.FlexID(tripID), StopID: "S2", StopSequence: 1, DepartureTime: "06:10:00"},
			}, nil
		},
		stops: func(context.Context) ([]metlink.Stop, error) {
			return []metlink.Stop{
				{StopID: "S1", StopName: "Wellington Station"},
				{StopID: "S2", StopName: "Petone Station"},
			}, nil
		},
		tripUpdates: func(context.Context) (json.RawMessage, error) {
			return json.RawMessage(`{"entity": [{
				"id": "1",
				"trip_update": {
					"trip": {"trip_id": "T1"},
					"stop_time_update": [{"stop_id": "S2", "departure": {"time": 1700000000, "delay": 60}}]
				}
			}]}`), nil
		},
		vehiclePositions: func(context.Context) (json.RawMessage, error) {
			return json.RawMessage(`{"entity": [{"id": "v1", "vehicle": {"trip": {"trip_id": "T1"}}}]}`), nil
		},
		stopPredictions: func(context.Context, string) ([]metlink.StopDeparture, error) {
			return nil, nil
		},
	}
}

func newTestExplorer(f Fetcher) *Explorer {
	return New(f, nil, time.UTC, zerolog.Nop())
}

func TestRefreshSuccess(t *testing.T) {
	e := newTestExplorer(healthyFetcher())
	key := Key{RouteID: "10", DirectionID: 0}

	st, err := e.Refresh(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, StatusFresh, st.Status)
	require.NotNil(t, st.Timeline)
	assert.Equal(t, 2, st.Timeline.TotalStops)
	assert.Equal(t, 1, st.Timeline.RealTimeStops)
	assert.Equal(t, 1, st.Timeline.ActiveVehicles)
	assert.True(t, st.Timeline.Stops[1].HasRealTime)
	assert.False(t, st.Timeline.Stops[0].HasRealTime)

	// State reads back what Refresh published.
	assert.Equal(t, st.Status, e.State(key).Status)
}

func TestRefreshRealtimeOutageDegrades(t *testing.T) {
	f := healthyFetcher()
	f.tripUpdates = func(context.Context) (json.RawMessage, error) {
		return nil, errors.New("gateway timeout")
	}
	f.vehiclePositions = func(context.Context) (json.RawMessage, error) {
		return nil, errors.New("gateway timeout")
	}
	e := newTestExplorer(f)

	st, err := e.Refresh(context.Background(), Key{RouteID: "10", DirectionID: 0})
	require.NoError(t, err)
	assert.Equal(t, StatusFresh, st.Status)
	require.NotNil(t, st.Timeline)
	assert.Zero(t, st.Timeline.RealTimeStops)
	assert.Zero(t, st.Timeline.ActiveVehicles)
	for _, s := range st.Timeline.Stops {
		assert.False(t, s.HasRealTime)
		assert.Contains(t, s.ETADisplay, "Scheduled: ")
	}
}

func TestRefreshMalformedFeedDegrades(t *testing.T) {
	f := healthyFetcher()
	f.tripUpdates = func(context.Context) (json.RawMessage, error) {
		return json.RawMessage(`"not a feed"`), nil
	}
	e := newTestExplorer(f)

	st, err := e.Refresh(context.Background(), Key{RouteID: "10", DirectionID: 0})
	require.NoError(t, err)
	assert.Equal(t, StatusFresh, st.Status)
	assert.Zero(t, st.Timeline.RealTimeStops)
}

func TestRefreshStaticFailureRetainsPreviousTimeline(t *testing.T) {
	f := healthyFetcher()
	e := newTestExplorer(f)
	key := Key{RouteID: "10", DirectionID: 0}

	first, err := e.Refresh(context.Background(), key)
	require.NoError(t, err)

	f.trips = func(context.Context) ([]metlink.Trip, error) {
		return nil, &metlink.TransportError{Resource: "trips", Status: 503}
	}
	st, err := e.Refresh(context.Background(), key)
	require.Error(t, err)
	assert.Equal(t, StatusStale, st.Status)
	require.NotNil(t, st.Timeline)
	assert.Equal(t, first.Timeline.TotalStops, st.Timeline.TotalStops)
	assert.NotEmpty(t, st.LastError)
	assert.Equal(t, first.LastSuccess, st.LastSuccess)
}

func TestRefreshFirstFailureReportsNoData(t *testing.T) {
	f := healthyFetcher()
	f.stops = func(context.Context) ([]metlink.Stop, error) {
		return nil, &metlink.TransportError{Resource: "stops", Status: 500}
	}
	e := newTestExplorer(f)

	st, err := e.Refresh(context.Background(), Key{RouteID: "10", DirectionID: 0})
	require.Error(t, err)
	assert.Equal(t, StatusNoData, st.Status)
	assert.Nil(t, st.Timeline)
}

func TestRefreshNoTripsMeansNoService(t *testing.T) {
	e := newTestExplorer(healthyFetcher())

	st, err := e.Refresh(context.Background(), Key{RouteID: "10", DirectionID: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusNoService, st.Status)
	require.NotNil(t, st.Timeline)
	assert.Zero(t, st.Timeline.TotalStops)
}

func TestRefreshCancelledPublishesNothingFresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := healthyFetcher()
	f.stops = func(context.Context) ([]metlink.Stop, error) {
		cancel()
		return []metlink.Stop{}, nil
	}
	e := newTestExplorer(f)

	st, err := e.Refresh(ctx, Key{RouteID: "10", DirectionID: 0})
	require.Error(t, err)
	assert.NotEqual(t, StatusFresh, st.Status)
	assert.Nil(t, st.Timeline)
}

func TestRefreshPointPredictionsFillGaps(t *testing.T) {
	f := healthyFetcher()
	f.tripUpdates = func(context.Context) (json.RawMessage, error) { return nil, nil }
	f.stopPredictions = func(context.Context, string) ([]metlink.StopDeparture, error) {
		return []metlink.StopDeparture{
			{StopID: "S1", RouteID: "10", RouteShortName: "HVL", DirectionID: 0, TripID: "T1", DepartureTime: "06:01:00"},
		}, nil
	}
	e := newTestExplorer(f)

	st, err := e.Refresh(context.Background(), Key{RouteID: "10", DirectionID: 0})
	require.NoError(t, err)
	assert.True(t, st.Timeline.Stops[0].HasRealTime)
	assert.Equal(t, "06:01:00", st.Timeline.Stops[0].NextDeparture)
	assert.False(t, st.Timeline.Stops[1].HasRealTime)
}

func TestRefreshGaugesAreKeyedPerRoute(t *testing.T) {
	f := healthyFetcher()
	f.routes = func(context.Context) ([]metlink.Route, error) {
		return []metlink.Route{
			{RouteID: "10", RouteShortName: "HVL", RouteType: metlink.RouteTypeTrain},
			{RouteID: "20", RouteShortName: "KPL", RouteType: metlink.RouteTypeTrain},
		}, nil
	}
	f.trips = func(context.Context) ([]metlink.Trip, error) {
		return []metlink.Trip{
			{TripID: "T1", RouteID: "10", DirectionID: 0},
			{TripID: "K1", RouteID: "20", DirectionID: 0},
		}, nil
	}
	collector := metrics.NewCollector()
	e := New(f, collector, time.UTC, zerolog.Nop())

	_, err := e.Refresh(context.Background(), Key{RouteID: "10", DirectionID: 0})
	require.NoError(t, err)
	_, err = e.Refresh(context.Background(), Key{RouteID: "20", DirectionID: 0})
	require.NoError(t, err)

	// Each key keeps its own gauge series; the second refresh must not
	// overwrite the first key's values.
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.TimelineStops.WithLabelValues("10", "0")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.TimelineStops.WithLabelValues("20", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.RealTimeStops.WithLabelValues("10", "0")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.RealTimeStops.WithLabelValues("20", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ActiveVehicles.WithLabelValues("10", "0")))
}

func TestStateUnknownKey(t *testing.T) {
	e := newTestExplorer(healthyFetcher())
	st := e.State(Key{RouteID: "99", DirectionID: 0})
	assert.Equal(t, StatusNoData, st.Status)
	assert.Nil(t, st.Timeline)
}

func TestListRoutesAndTransportTypes(t *testing.T) {
	e := newTestExplorer(healthyFetcher())

	routes, err := e.ListRoutes(context.Background(), metlink.RouteTypeTrain, nil)
	require.NoError(t, err)
	require.Len(t, routes, 1)

	routes, err = e.ListRoutes(context.Background(), metlink.RouteTypeBus, nil)
	require.NoError(t, err)
	assert.Empty(t, routes)

	counts, err := e.AvailableTransportTypes(context.Background(), map[string]struct{}{"10": {}})
	require.NoError(t, err)
	assert.Empty(t, counts)
}
