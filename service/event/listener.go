// Package event fans approval lifecycle events out to registered handlers.
package event

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/messaging"
)

// Handler processes one approval event.
type Handler func(ctx context.Context, event *approval.Event)

// Listener drains an approval event queue and dispatches each event to the
// handlers registered for its topic.
type Listener struct {
	queue messaging.Queue[approval.Event]

	mu       sync.RWMutex
	handlers map[string][]Handler

	cancel  context.CancelFunc
	stopped sync.WaitGroup
}

// NewListener creates a listener over the supplied queue.
func NewListener(queue messaging.Queue[approval.Event]) *Listener {
	return &Listener{
		queue:    queue,
		handlers: make(map[string][]Handler),
	}
}

// On registers a handler for a topic. An empty topic receives every event.
func (l *Listener) On(topic string, handler Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[topic] = append(l.handlers[topic], handler)
}

// Start begins consuming in the background.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.stopped.Add(1)
	go l.run(ctx)
}

// Stop halts consumption and waits for the loop to exit.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.stopped.Wait()
}

func (l *Listener) run(ctx context.Context) {
	defer l.stopped.Done()
	for {
		message, err := l.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			log.Printf("event: consume failed: %v", err)
			continue
		}
		l.dispatch(ctx, message.T())
		if err := message.Ack(); err != nil {
			log.Printf("event: ack failed: %v", err)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, event *approval.Event) {
	l.mu.RLock()
	handlers := append([]Handler{}, l.handlers[event.Topic]...)
	handlers = append(handlers, l.handlers[""]...)
	l.mu.RUnlock()
	for _, handler := range handlers {
		handler(ctx, event)
	}
}

// LogHandler records every event, the default audit sink.
func LogHandler(_ context.Context, event *approval.Event) {
	log.Printf("event: %s %+v", event.Topic, event.Data)
}
