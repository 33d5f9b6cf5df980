// Package eventbus carries domain notifications and background jobs
// between components. Production uses NATS JetStream; tests and single
// node development use the in-process LocalBus.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Subjects published by the application. Jobs live under their own prefix
// so they can be kept apart from domain events.
const (
	SubjectPrefix         = "mulearn."
	SubjectJobsPrefix     = SubjectPrefix + "jobs."
	SubjectCountsChanged  = SubjectPrefix + "counts.changed"
	SubjectDiscordOnboard = SubjectJobsPrefix + "discord.onboard"
)

// ErrClosed is returned when publishing on a closed bus
var ErrClosed = errors.New("event bus closed")

// Handler processes one message payload. A non-nil error asks the bus to
// redeliver when the transport supports it.
type Handler func(ctx context.Context, data []byte) error

// Publisher sends JSON-encoded payloads to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Subscriber registers handlers for a subject
type Subscriber interface {
	Subscribe(subject string, handler Handler) error
}

// Bus is a Publisher and Subscriber that owns its resources
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Observer receives bus activity, used for metrics
type Observer interface {
	MessagePublished(ctx context.Context, subject string)
	MessageHandled(ctx context.Context, subject string, err error)
}

type noopObserver struct{}

func (noopObserver) MessagePublished(context.Context, string)      {}
func (noopObserver) MessageHandled(context.Context, string, error) {}

// CountsChanged is the payload of SubjectCountsChanged
type CountsChanged struct {
	Reason string `json:"reason"`
}

// DiscordOnboardJob is the payload of SubjectDiscordOnboard
type DiscordOnboardJob struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
}

func encode(payload any) ([]byte, error) {
	if b, ok := payload.([]byte); ok {
		return b, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return data, nil
}

// Decode unmarshals a message payload into v
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// NoopPublisher drops every message. Useful for tools that write to the
// database without live consumers, such as the migrate command.
type NoopPublisher struct{}

// Publish does nothing
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
