package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veracity/internal/registry/events"
	"veracity/pkg/domain"
)

const (
	publisherID = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	contentID   = "0x2e4a7c1f9b8d3e6a5c0f1b2d4e6a8c0f1b2d4e6a8c0f1b2d4e6a8c0f1b2d4e6a"
)

func TestBrokerFanOut(t *testing.T) {
	broker := events.NewBroker()
	defer broker.Close()

	first := broker.Subscribe(4)
	second := broker.Subscribe(4)

	event := events.ContentPublished(domain.ContentID(contentID), "sha256:cafe", domain.Identity(publisherID), time.Now().UTC())
	require.NoError(t, broker.Emit(context.Background(), event))

	for _, ch := range []<-chan events.Event{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, events.TypeContentPublished, got.Type)
			assert.Equal(t, domain.ContentID(contentID), got.ContentID)
			assert.Equal(t, domain.Identity(publisherID), got.Publisher)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	broker := events.NewBroker()
	defer broker.Close()

	// Buffer of one, never drained.
	_ = broker.Subscribe(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = broker.Emit(context.Background(), events.SourceRegistered(domain.Identity(publisherID), time.Now().UTC()))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on a slow subscriber")
	}
}

func TestWorkerForwardsToSink(t *testing.T) {
	broker := events.NewBroker()
	inbox := broker.Subscribe(8)

	var mu sync.Mutex
	var received []events.Event
	sink := events.SinkFunc(func(_ context.Context, event events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		return nil
	})

	worker := events.NewWorker(sink, inbox)
	errCh := make(chan error, 1)
	go func() { errCh <- worker.Run(context.Background()) }()

	require.NoError(t, broker.Emit(context.Background(), events.SourceRegistered(domain.Identity(publisherID), time.Now().UTC())))
	require.NoError(t, broker.Emit(context.Background(), events.CredibilityAdjusted(domain.Identity(publisherID), -25, time.Now().UTC())))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, time.Second, 10*time.Millisecond)

	broker.Close()
	require.NoError(t, <-errCh)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, events.TypeSourceRegistered, received[0].Type)
	assert.Equal(t, events.TypeCredibilityAdjusted, received[1].Type)
	assert.Equal(t, -25, received[1].Delta)
}

func TestWorkerStopsOnSinkError(t *testing.T) {
	inbox := make(chan events.Event, 1)
	sinkErr := errors.New("sink unavailable")
	worker := events.NewWorker(events.SinkFunc(func(context.Context, events.Event) error {
		return sinkErr
	}), inbox)

	inbox <- events.SourceRegistered(domain.Identity(publisherID), time.Now().UTC())

	err := worker.Run(context.Background())
	require.ErrorIs(t, err, sinkErr)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	inbox := make(chan events.Event)
	worker := events.NewWorker(events.Discard, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
