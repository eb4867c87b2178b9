package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Message is the frame written to websocket clients.
type Message struct {
	Event     string    `json:"event"`
	Group     string    `json:"group,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Command is the frame read from websocket clients.
type Command struct {
	Action string `json:"action"`
	Group  string `json:"group,omitempty"`
}

var ErrInvalidEnvelope = errors.New("invalid relay envelope")

// RelayEnvelope is what travels over the cross-instance bus (Kafka or Redis):
// one hub publish, serialized so every instance can replay it into its own hub.
type RelayEnvelope struct {
	Origin    string          `json:"origin,omitempty"`
	Group     string          `json:"group"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`

	// Source is the bus topic or channel the envelope was read from.
	Source string `json:"-"`
}

// NewRelayEnvelope serializes payload once so the envelope can be shipped as bytes.
func NewRelayEnvelope(origin, group, event string, payload any, at time.Time) (*RelayEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal relay payload: %w", err)
	}
	return &RelayEnvelope{Origin: origin, Group: group, Event: event, Data: data, Timestamp: at.UTC()}, nil
}

// DecodeRelayEnvelope parses a bus message and applies defaults.
func DecodeRelayEnvelope(raw []byte, source string) (*RelayEnvelope, error) {
	var env RelayEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if strings.TrimSpace(env.Event) == "" {
		return nil, fmt.Errorf("%w: missing event", ErrInvalidEnvelope)
	}
	if strings.TrimSpace(env.Group) == "" {
		env.Group = DefaultGroup
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}
	env.Source = source
	return &env, nil
}
