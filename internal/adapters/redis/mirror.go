package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/vemulator/pkg/bus"
	backend "github.com/redis/go-redis/v9"
)

// Mirror implements ports.ValueMirror using Redis. Display values go to the
// hash <prefix><device>:values, wire values to <prefix><device>:hex, and every
// change is published as JSON on <prefix><device>:events.
type Mirror struct {
	client *backend.Client
	prefix string
	device string
	runID  string
	ttl    time.Duration
}

type Option func(*Mirror)

// WithTTL sets the expiration of the hashes, refreshed on every change.
func WithTTL(ttl time.Duration) Option {
	return func(m *Mirror) {
		m.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(m *Mirror) {
		m.prefix = prefix
	}
}

// WithRunID tags published events with the emulator run.
func WithRunID(id string) Option {
	return func(m *Mirror) {
		m.runID = id
	}
}

// New creates a mirror connected to address.
func New(address, password string, db int, device string, opts ...Option) *Mirror {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, device, opts...)
}

// NewFromClient creates a mirror from an existing client.
func NewFromClient(client *backend.Client, device string, opts ...Option) *Mirror {
	m := &Mirror{
		client: client,
		prefix: "vemulator:",
		device: device,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ValuesKey is the hash holding display values by display name.
func (m *Mirror) ValuesKey() string { return m.prefix + m.device + ":values" }

// HexKey is the hash holding hex wire values by field id.
func (m *Mirror) HexKey() string { return m.prefix + m.device + ":hex" }

// Channel is the pub/sub channel change events are published on.
func (m *Mirror) Channel() string { return m.prefix + m.device + ":events" }

type message struct {
	RunID string `json:"run_id,omitempty"`
	Topic string `json:"topic"`
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`
	Hex   string `json:"hex,omitempty"`
}

// Ping checks the connection.
func (m *Mirror) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// Mirror records one store change. Overwrite events are ignored.
func (m *Mirror) Mirror(ctx context.Context, e bus.Event) error {
	msg := message{RunID: m.runID, Topic: string(e.Topic), Key: e.Key.String()}

	var hash, field, value string
	switch e.Topic {
	case bus.TopicFieldUpdate:
		hash, field, value = m.ValuesKey(), e.Key.DisplayName(), e.Value.String()
		msg.Value = e.Value
	case bus.TopicHexUpdate:
		hash, field, value = m.HexKey(), e.Key.String(), e.Hex
		msg.Hex = e.Hex
	default:
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := m.client.Pipeline()
	pipe.HSet(ctx, hash, field, value)
	if m.ttl > 0 {
		pipe.Expire(ctx, hash, m.ttl)
	}
	pipe.Publish(ctx, m.Channel(), data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mirror to redis: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
