package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain() {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}

func TestListenerDispatchesToEveryHandler(t *testing.T) {
	drain()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(slog.New(slog.NewTextHandler(io.Discard, nil)))
	first := make(chan Event, 1)
	second := make(chan Event, 1)
	l.Register(func(_ context.Context, e Event) error {
		first <- e
		return errors.New("handler errors are only logged")
	})
	l.Register(func(_ context.Context, e Event) error {
		second <- e
		return nil
	})

	done := make(chan error)
	go func() { done <- l.Listen(ctx) }()

	require.True(t, Send(CraftFinished(Text("strand", "Craft finished"), "id-1", FinishedSuccess, 3)))

	for _, ch := range []chan Event{first, second} {
		select {
		case e := <-ch:
			finished, ok := e.(CraftFinishedEvent)
			require.True(t, ok)
			assert.Equal(t, "strand", finished.Profile())
			assert.Equal(t, "Craft finished", finished.Message())
			assert.Equal(t, FinishedSuccess, finished.Reason)
			assert.Equal(t, 3, finished.Processed)
			assert.False(t, finished.OccurredAt().IsZero())
		case <-time.After(time.Second):
			t.Fatal("event was not dispatched")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestSendDropsWhenQueueIsFull(t *testing.T) {
	drain()
	defer drain()

	for range queueSize {
		require.True(t, Send(Text("strand", "queued")))
	}
	assert.False(t, Send(CraftStarted(Text("strand", "dropped"), "id-2", "chaos", "batch")))
}
