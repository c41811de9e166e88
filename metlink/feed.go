package metlink

import (
	"bytes"
	"encoding/json"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
)

var feedUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true, AllowPartial: true}

// DecodeFeedEntities normalizes a GTFS-RT JSON payload into its entities.
// The API has been observed emitting two shapes for the same resource: a
// bare array of feed entities, and a FeedMessage object wrapping them under
// an "entity" key. Anything else is a MalformedDataError; callers at the
// realtime boundary degrade that to an empty entity list.
//
// Entities that individually fail to decode are skipped and counted rather
// than failing the feed.
func DecodeFeedEntities(resource string, raw json.RawMessage) ([]*gtfsrtpb.FeedEntity, int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, 0, &MalformedDataError{Resource: resource, Detail: "empty payload"}
	}

	var elems []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, 0, &MalformedDataError{Resource: resource, Detail: err.Error()}
		}
	case '{':
		var wrapper struct {
			Entity []json.RawMessage `json:"entity"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, 0, &MalformedDataError{Resource: resource, Detail: err.Error()}
		}
		if wrapper.Entity == nil {
			return nil, 0, &MalformedDataError{Resource: resource, Detail: `object payload has no "entity" key`}
		}
		elems = wrapper.Entity
	default:
		return nil, 0, &MalformedDataError{Resource: resource, Detail: "payload is neither an array nor an object"}
	}

	entities := make([]*gtfsrtpb.FeedEntity, 0, len(elems))
	skipped := 0
	for _, el := range elems {
		entity := &gtfsrtpb.FeedEntity{}
		if err := feedUnmarshal.Unmarshal(el, entity); err != nil {
			skipped++
			continue
		}
		entities = append(entities, entity)
	}
	return entities, skipped, nil
}
