package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LocalBus delivers messages to in-process handlers. Each delivery runs on
// its own goroutine; Close waits for deliveries still running.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
	wg       sync.WaitGroup
	logger   zerolog.Logger
	observer Observer
}

// NewLocalBus creates an in-process bus
func NewLocalBus(logger zerolog.Logger, observer Observer) *LocalBus {
	if observer == nil {
		observer = noopObserver{}
	}
	return &LocalBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
		observer: observer,
	}
}

// Publish hands payload to every handler subscribed to subject
func (b *LocalBus) Publish(ctx context.Context, subject string, payload any) error {
	data, err := encode(payload)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	b.observer.MessagePublished(ctx, subject)
	for _, h := range b.handlers[subject] {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			// Deliveries outlive the publishing request
			err := h(context.WithoutCancel(ctx), data)
			b.observer.MessageHandled(ctx, subject, err)
			if err != nil {
				b.logger.Error().Err(err).Str("subject", subject).Msg("Local handler failed")
			}
		}(h)
	}
	return nil
}

// Subscribe registers handler for subject
func (b *LocalBus) Subscribe(subject string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.handlers[subject] = append(b.handlers[subject], handler)
	return nil
}

// Close stops accepting messages and waits for running handlers
func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
