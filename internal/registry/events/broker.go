package events

import (
	"context"
	"sync"
)

// Sink receives registry events. Implementations must tolerate concurrent
// calls; emit failures are the sink's to report.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Discard drops every event. Used when no sink is configured.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })

// Broker is an in-process fan-out sink. Subscribers receive events on
// buffered channels; a subscriber that falls behind loses events rather than
// blocking the write path.
type Broker struct {
	mu   sync.RWMutex
	subs []chan Event
}

func NewBroker() *Broker {
	return &Broker{}
}

// Subscribe registers a new consumer. The returned channel is closed by
// Close.
func (b *Broker) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Emit delivers the event to every subscriber without blocking.
func (b *Broker) Emit(_ context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Close closes all subscriber channels. Emit must not be called afterwards.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
