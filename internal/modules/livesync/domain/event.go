package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	realtime "ventasWs/internal/modules/realtime/domain"
	"ventasWs/internal/shared/normalization"
)

var ErrMalformedEvent = errors.New("malformed change event")

// Frame is a server message as read by the client.
type Frame struct {
	Event     string          `json:"event"`
	Group     string          `json:"group,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type wireEvent struct {
	EntityType string    `json:"entityType"`
	Action     string    `json:"action"`
	Data       any       `json:"data"`
	ID         any       `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
}

// DecodeChangeEvent parses the data of an EntityChanged frame. The entity type
// is canonicalized and the action accepts any casing.
func DecodeChangeEvent(raw []byte) (realtime.ChangeEvent, error) {
	var wire wireEvent
	if err := json.Unmarshal(raw, &wire); err != nil {
		return realtime.ChangeEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	entityType := normalization.CanonicalEntity(wire.EntityType)
	if strings.TrimSpace(entityType) == "" || entityType == realtime.WildcardTopic {
		return realtime.ChangeEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, realtime.ErrEmptyEntityType)
	}
	action, ok := realtime.ParseAction(wire.Action)
	if !ok {
		return realtime.ChangeEvent{}, fmt.Errorf("%w: %v %q", ErrMalformedEvent, realtime.ErrUnknownAction, wire.Action)
	}
	return realtime.ChangeEvent{
		EntityType: entityType,
		Action:     action,
		Data:       wire.Data,
		ID:         wire.ID,
		Timestamp:  wire.Timestamp,
	}, nil
}
