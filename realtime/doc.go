// Package realtime matches live feed data to a stop pattern: trip updates
// by trip identity, point stop-predictions by stop identity. Both sources
// degrade to empty results when unavailable or malformed; schedule-only
// timelines are still produced downstream.
package realtime
