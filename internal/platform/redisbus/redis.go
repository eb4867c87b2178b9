package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"ventasWs/internal/modules/realtime/application/port"
	"ventasWs/internal/modules/realtime/domain"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Bus relays hub publishes between instances over a Redis pub/sub channel.
type Bus struct {
	client  *redis.Client
	channel string
	origin  string
	now     func() time.Time
}

// Connect opens the client and verifies it with a ping.
func Connect(ctx context.Context, opts Options, origin string) (*Bus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("redis relay connected", slog.String("addr", opts.Addr), slog.String("channel", opts.Channel))
	return &Bus{client: client, channel: opts.Channel, origin: origin, now: time.Now}, nil
}

func (b *Bus) Channel() string { return b.channel }

func (b *Bus) Publish(ctx context.Context, group, event string, payload any) error {
	value, err := b.encode(group, event, payload)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, value).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", event, err)
	}
	return nil
}

func (b *Bus) encode(group, event string, payload any) ([]byte, error) {
	env, err := domain.NewRelayEnvelope(b.origin, group, event, payload, b.now())
	if err != nil {
		return nil, err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal relay envelope: %w", err)
	}
	return value, nil
}

// Consume subscribes to the relay channel and hands every envelope to handler
// until ctx is done.
func (b *Bus) Consume(ctx context.Context, handler func(*domain.RelayEnvelope) error) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	slog.Info("redis consumer started", slog.String("channel", b.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			env, err := domain.DecodeRelayEnvelope([]byte(msg.Payload), msg.Channel)
			if err != nil {
				slog.Warn("redis message dropped", slog.String("channel", msg.Channel), slog.Any("error", err))
				continue
			}
			if err := handler(env); err != nil {
				slog.Warn("redis handler error", slog.Any("error", err))
			}
		}
	}
}

func (b *Bus) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

var (
	_ port.Publisher     = (*Bus)(nil)
	_ port.RelayConsumer = (*Bus)(nil)
)
