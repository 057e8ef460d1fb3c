// Package publisher emits audit events to an audit.Store.
//
// In the default synchronous mode Emit blocks until the store accepts the
// event and returns its error, so callers can fail closed (identity access is
// audited this way, inside the same transaction). WithAsyncBuffer switches to a
// buffered background writer for fire-and-forget events such as moderation.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	id "vouch/pkg/domain"
	audit "vouch/pkg/platform/audit"
)

var errBufferFull = errors.New("audit buffer full")

type Publisher struct {
	store  audit.Store
	logger zerolog.Logger

	buffer int
	events chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with a channel of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.events = make(chan audit.Event, p.buffer)
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records event, stamping its timestamp and category when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.events == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.Warn().Str("action", event.Action).Msg("audit buffer full, dropping event")
		return errBufferFull
	}
}

// List returns the recorded events for a worker.
func (p *Publisher) List(ctx context.Context, workerID id.WorkerID) ([]audit.Event, error) {
	return p.store.ListByWorker(ctx, workerID)
}

// Close drains pending asynchronous events and stops the writer.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.events != nil {
			close(p.events)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error().Err(err).Str("action", event.Action).Msg("failed to persist audit event")
		}
	}
}
