package event

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

const queueSize = 100

var events = make(chan Event, queueSize)

// Send queues the event for the listener without blocking, it reports false
// when the queue is full and the event was dropped.
func Send(e Event) bool {
	select {
	case events <- e:
		return true
	default:
		return false
	}
}

type Handler func(ctx context.Context, e Event) error

type Listener struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{logger: logger}
}

func (l *Listener) Register(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Listen dispatches queued events to every registered handler until ctx is
// done. Handler errors are logged, they never stop the listener.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			l.dispatch(ctx, e)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, e Event) {
	l.mu.RLock()
	handlers := append([]Handler(nil), l.handlers...)
	l.mu.RUnlock()

	var g errgroup.Group
	for _, h := range handlers {
		g.Go(func() error {
			if err := h(ctx, e); err != nil {
				l.logger.Error("Error running event handler", slog.String("profile", e.Profile()), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()
}
