// Package metlink is a typed HTTP client for the Metlink Open Data API.
// It covers the GTFS static resources (agency, routes, stops, trips,
// stop_times), the GTFS-RT JSON feeds (trip updates, vehicle positions,
// service alerts) and the Metlink-specific stop-predictions resource.
package metlink
