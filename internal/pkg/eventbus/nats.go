package eventbus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSConfig configures the JetStream bus
type NATSConfig struct {
	URL    string
	Stream string
	// ClientName identifies this process to the NATS server
	ClientName string
}

// NATSBus implements Bus on NATS JetStream with durable consumers
type NATSBus struct {
	cfg           NATSConfig
	nc            *nats.Conn
	js            nats.JetStreamContext
	subscriptions map[string]*nats.Subscription
	mu            sync.Mutex
	logger        zerolog.Logger
	observer      Observer
}

// ConnectNATS dials the server and makes sure the stream exists
func ConnectNATS(cfg NATSConfig, logger zerolog.Logger, observer Observer) (*NATSBus, error) {
	if observer == nil {
		observer = noopObserver{}
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "mulearn-api"
	}

	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error().Err(err).Msg("NATS disconnected with error")
			} else {
				logger.Warn().Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	b := &NATSBus{
		cfg:           cfg,
		nc:            nc,
		js:            js,
		subscriptions: make(map[string]*nats.Subscription),
		logger:        logger,
		observer:      observer,
	}

	if err := b.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info().Str("url", cfg.URL).Str("stream", cfg.Stream).Msg("Connected to NATS with JetStream")
	return b, nil
}

// jobRetention bounds how long an unconsumed job, and any credential it
// carries, stays on the server
const jobRetention = 10 * time.Minute

// streamConfigs returns the events stream and the jobs stream. Jobs live in
// memory on a work queue so an acknowledged job is removed at once.
func streamConfigs(name string) []*nats.StreamConfig {
	return []*nats.StreamConfig{
		{
			Name:        name,
			Subjects:    []string{SubjectCountsChanged},
			Retention:   nats.LimitsPolicy,
			MaxAge:      24 * time.Hour,
			Storage:     nats.FileStorage,
			Replicas:    1,
			Description: "muLearn domain events",
		},
		{
			Name:        name + "_JOBS",
			Subjects:    []string{SubjectJobsPrefix + ">"},
			Retention:   nats.WorkQueuePolicy,
			MaxAge:      jobRetention,
			Storage:     nats.MemoryStorage,
			Replicas:    1,
			Description: "muLearn background jobs",
		},
	}
}

func (b *NATSBus) ensureStream() error {
	for _, sc := range streamConfigs(b.cfg.Stream) {
		if _, err := b.js.StreamInfo(sc.Name); err == nil {
			if _, err := b.js.UpdateStream(sc); err != nil {
				return fmt.Errorf("failed to update stream %s: %w", sc.Name, err)
			}
			continue
		}
		if _, err := b.js.AddStream(sc); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", sc.Name, err)
		}
		b.logger.Info().Str("stream", sc.Name).Msg("Created JetStream stream")
	}
	return nil
}

// Publish sends payload through JetStream
func (b *NATSBus) Publish(ctx context.Context, subject string, payload any) error {
	data, err := encode(payload)
	if err != nil {
		return err
	}

	if _, err := b.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}
	b.observer.MessagePublished(ctx, subject)
	return nil
}

// Subscribe creates a durable, manually acknowledged consumer for subject.
// Failed deliveries are NAKed and retried up to three times.
func (b *NATSBus) Subscribe(subject string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, err := b.js.Subscribe(
		subject,
		func(msg *nats.Msg) {
			ctx := context.Background()
			err := handler(ctx, msg.Data)
			b.observer.MessageHandled(ctx, subject, err)
			if err != nil {
				b.logger.Error().Err(err).Str("subject", subject).Msg("Failed to process message")
				if nakErr := msg.Nak(); nakErr != nil {
					b.logger.Error().Err(nakErr).Msg("Failed to NAK message")
				}
				return
			}
			if ackErr := msg.Ack(); ackErr != nil {
				b.logger.Error().Err(ackErr).Msg("Failed to ACK message")
			}
		},
		nats.Durable(consumerName(subject)),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxDeliver(3),
		nats.AckWait(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.subscriptions[subject] = sub
	b.logger.Info().Str("subject", subject).Msg("Subscribed to NATS subject")
	return nil
}

// Close drains subscriptions and closes the connection
func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subject, sub := range b.subscriptions {
		if err := sub.Drain(); err != nil {
			b.logger.Error().Err(err).Str("subject", subject).Msg("Failed to drain subscription")
		}
	}
	b.subscriptions = make(map[string]*nats.Subscription)

	if b.nc != nil {
		b.nc.Close()
	}
	return nil
}

// consumerName turns a subject into a valid durable consumer name
func consumerName(subject string) string {
	r := strings.NewReplacer(".", "_", "*", "any", ">", "all")
	return "mulearn-api-" + r.Replace(subject)
}
