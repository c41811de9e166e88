package explorer

import (
	"fmt"
	"time"

	"github.com/iamawumpas/Metlink-Explorer/timeline"
)

// Status distinguishes the states the presentation layer must tell apart.
type Status string

const (
	// StatusNoData means no refresh has ever succeeded for the key.
	StatusNoData Status = "no_data"
	// StatusFresh means the held timeline comes from the latest refresh.
	StatusFresh Status = "fresh"
	// StatusStale means the latest refresh failed and the held timeline is
	// the last known good one.
	StatusStale Status = "stale"
	// StatusNoService means the route+direction resolved to no trips.
	StatusNoService Status = "no_service"
)

// Key identifies one watched route+direction.
type Key struct {
	RouteID     string `json:"route_id"`
	DirectionID int    `json:"direction_id"`
}

func (k Key) String() string { return fmt.Sprintf("%s|%d", k.RouteID, k.DirectionID) }

// State is what the host sees for one key. Timeline is nil until a refresh
// succeeds; after a failure it retains the last good value, read-only.
type State struct {
	Status      Status             `json:"status"`
	Timeline    *timeline.Timeline `json:"timeline,omitempty"`
	LastSuccess time.Time          `json:"last_success,omitempty"`
	LastError   string             `json:"last_error,omitempty"`
}
