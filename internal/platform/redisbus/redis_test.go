package redisbus

import (
	"testing"
	"time"

	"ventasWs/internal/modules/realtime/domain"
)

func TestEncodeRoundTripsThroughRelayDecoder(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := &Bus{channel: "ventas", origin: "node-1", now: func() time.Time { return at }}

	value, err := bus.encode("", domain.EventEntityChanged, map[string]any{"id": 7})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := domain.DecodeRelayEnvelope(value, bus.Channel())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Group != domain.DefaultGroup {
		t.Fatalf("expected default group, got %q", env.Group)
	}
	if env.Origin != "node-1" || env.Source != "ventas" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestCloseNilBus(t *testing.T) {
	var bus *Bus
	if err := bus.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
