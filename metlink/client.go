package metlink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamawumpas/Metlink-Explorer/config"
)

// Logical endpoint paths, relative to the API base URL.
const (
	pathAgency           = "/gtfs/agency"
	pathRoutes           = "/gtfs/routes"
	pathStops            = "/gtfs/stops"
	pathTrips            = "/gtfs/trips"
	pathStopTimes        = "/gtfs/stop_times"
	pathVehiclePositions = "/gtfs-rt/vehiclepositions"
	pathTripUpdates      = "/gtfs-rt/tripupdates"
	pathServiceAlerts    = "/gtfs-rt/servicealerts"
	pathStopPredictions  = "/stop-predictions"
)

// Client fetches one resource kind per call from the Metlink Open Data API.
// Authentication is a static key sent in the x-api-key header. Every request
// carries its own timeout; callers pass a context for cancellation.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a client from the API configuration.
func NewClient(cfg config.APIConfig, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.Key,
		timeout: timeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		logger: logger.With().Str("component", "metlink_client").Logger(),
	}
}

// get performs one GET against a logical resource and returns the raw body.
func (c *Client) get(ctx context.Context, resource, path string, params url.Values) (json.RawMessage, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Resource: resource, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Resource: resource, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Resource: resource, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Resource: resource, Err: err}
	}
	c.logger.Debug().Str("resource", resource).Int("bytes", len(body)).Msg("fetched resource")
	return body, nil
}

func (c *Client) getInto(ctx context.Context, resource, path string, params url.Values, out any) error {
	body, err := c.get(ctx, resource, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedDataError{Resource: resource, Detail: err.Error()}
	}
	return nil
}

// ValidateKey confirms the configured API key is accepted, using the agency
// resource as a lightweight probe.
func (c *Client) ValidateKey(ctx context.Context) error {
	var agencies []Agency
	if err := c.getInto(ctx, "agency", pathAgency, nil, &agencies); err != nil {
		return fmt.Errorf("validating API key: %w", err)
	}
	return nil
}

// Routes fetches the full route set.
func (c *Client) Routes(ctx context.Context) ([]Route, error) {
	var routes []Route
	if err := c.getInto(ctx, "routes", pathRoutes, nil, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// Stops fetches the full stop set.
func (c *Client) Stops(ctx context.Context) ([]Stop, error) {
	var stops []Stop
	if err := c.getInto(ctx, "stops", pathStops, nil, &stops); err != nil {
		return nil, err
	}
	return stops, nil
}

// Trips fetches the full trip set.
func (c *Client) Trips(ctx context.Context) ([]Trip, error) {
	var trips []Trip
	if err := c.getInto(ctx, "trips", pathTrips, nil, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// StopTimes fetches the stop times of one trip, filtered server-side.
func (c *Client) StopTimes(ctx context.Context, tripID string) ([]StopTime, error) {
	params := url.Values{}
	params.Set("trip_id", tripID)
	var stopTimes []StopTime
	if err := c.getInto(ctx, "stop_times", pathStopTimes, params, &stopTimes); err != nil {
		return nil, err
	}
	return stopTimes, nil
}

// TripUpdates fetches the raw trip-updates feed. The payload shape varies
// (bare entity array or wrapped object); DecodeFeedEntities normalizes it.
func (c *Client) TripUpdates(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "trip_updates", pathTripUpdates, nil)
}

// VehiclePositions fetches the raw vehicle-positions feed.
func (c *Client) VehiclePositions(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "vehicle_positions", pathVehiclePositions, nil)
}

// ServiceAlerts fetches the raw service-alerts feed.
func (c *Client) ServiceAlerts(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "service_alerts", pathServiceAlerts, nil)
}

// StopPredictions fetches near-term departure predictions. With an empty
// stopID the API returns predictions for all stops.
func (c *Client) StopPredictions(ctx context.Context, stopID string) ([]StopDeparture, error) {
	params := url.Values{}
	if stopID != "" {
		params.Set("stop_id", stopID)
	}
	var preds []StopDeparture
	if err := c.getInto(ctx, "stop_predictions", pathStopPredictions, params, &preds); err != nil {
		return nil, err
	}
	return preds, nil
}
