// Package config publishes the board's embedded configuration as retained
// bus messages, one per top-level key, on config/<key>.
package config

import (
	"context"
	"encoding/json"
	"errors"

	"f4disco/bus"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey struct{}

// CtxDeviceKey is the context key holding the board id.
var CtxDeviceKey = ctxKey{}

// WithDevice returns ctx carrying the board id the config is looked up by.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, CtxDeviceKey, device)
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Topic returns config/<key>.
func Topic(key string) bus.Topic { return bus.T(configPrefix, key) }

type Service struct {
	Name string
}

func NewService() *Service {
	return &Service{Name: serviceName}
}

// Publish reads the device config and publishes each key retained.
func (s *Service) Publish(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("embedded config is not a JSON object: " + err.Error())
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(Topic(k), v, true))
	}
	return nil
}

// Start publishes in a goroutine and logs failure.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.Publish(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}

// Decode converts a config payload into dst, starting from dst's current
// contents so absent keys keep their defaults.
func Decode[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

// Load waits for the retained config/<key> message and decodes it into dst.
// A missing key leaves dst unchanged and reports ctx's error.
func Load[T any](ctx context.Context, conn *bus.Connection, key string, dst *T) error {
	sub := conn.Subscribe(Topic(key))
	defer conn.Unsubscribe(sub)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case m := <-sub.Channel():
		return Decode(m.Payload, dst)
	}
}
