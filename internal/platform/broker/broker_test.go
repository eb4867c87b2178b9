package broker

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"ventasWs/internal/modules/realtime/domain"
)

func TestPublisherMessageCarriesOriginAndGroupKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &KafkaPublisher{origin: "instance-a", now: func() time.Time { return at }}

	msg, err := p.message("DataSync", domain.EventEntityChanged, map[string]any{"entityType": "Producto"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg.Key) != "DataSync" {
		t.Fatalf("unexpected key: %s", msg.Key)
	}

	env, err := decodeMessage(kafka.Message{Topic: "ventas.entity-changes", Value: msg.Value})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Origin != "instance-a" || env.Event != domain.EventEntityChanged || env.Source != "ventas.entity-changes" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if !env.Timestamp.Equal(at) {
		t.Fatalf("unexpected timestamp: %s", env.Timestamp)
	}
	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil || data["entityType"] != "Producto" {
		t.Fatalf("unexpected data %s (%v)", env.Data, err)
	}
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		[]byte("not json"),
		[]byte(`{"group":"DataSync"}`),
	}
	for _, value := range cases {
		if _, err := decodeMessage(kafka.Message{Value: value}); !errors.Is(err, domain.ErrInvalidEnvelope) {
			t.Fatalf("expected ErrInvalidEnvelope for %s, got %v", value, err)
		}
	}
}

func TestPublisherMessageRejectsUnserializablePayload(t *testing.T) {
	p := &KafkaPublisher{origin: "a", now: time.Now}
	if _, err := p.message("DataSync", "x", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}
