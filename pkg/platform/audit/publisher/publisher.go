// Package publisher delivers audit events to one or more sinks, synchronously
// by default or through a buffered channel with a background drain goroutine.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	audit "syncgate/pkg/platform/audit"
)

// Publisher fans audit events out to its sinks. Emit never blocks the
// request path in async mode: when the buffer is full the event is dropped
// and counted.
type Publisher struct {
	sinks  []audit.Sink
	logger *slog.Logger

	ch      chan audit.Event
	done    chan struct{}
	closeMu sync.Once

	dropped atomic.Int64
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.ch = make(chan audit.Event, size)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(sinks []audit.Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sinks:  sinks,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ch != nil {
		go p.drain()
	}
	return p
}

// Emit delivers an event. A zero timestamp is stamped with the current time.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.ch == nil {
		p.deliver(event)
		return nil
	}

	select {
	case p.ch <- event:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"dropped_total", p.dropped.Load(),
		)
	}
	return nil
}

// Dropped returns the number of events discarded due to a full buffer.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close drains buffered events and stops the background goroutine.
func (p *Publisher) Close() {
	p.closeMu.Do(func() {
		if p.ch == nil {
			close(p.done)
			return
		}
		close(p.ch)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.ch {
		p.deliver(event)
	}
}

func (p *Publisher) deliver(event audit.Event) {
	for _, sink := range p.sinks {
		if err := sink.Append(event); err != nil {
			p.logger.Error("audit sink append failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
