// Package executor drains the execution queue and hands approved tasks to
// downstream connectors. Approval and execution are separable failure
// domains: the pipeline enqueues and forgets, this service retries.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/slateops/slate/service/messaging"
	"github.com/slateops/slate/tracing"
)

// Config represents executor service configuration.
type Config struct {
	// WorkerCount is the number of workers draining the queue
	WorkerCount int
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{WorkerCount: 2}
}

// Service consumes execution tasks and dispatches them to connectors by
// action name. Tasks whose action has no dedicated connector go to the
// default connector.
type Service struct {
	config     Config
	queue      messaging.Queue[Task]
	defaultTo  Connector
	connectors map[string]Connector

	workerWg sync.WaitGroup
	cancel   context.CancelFunc
	mu       sync.Mutex
}

// Option customises the executor service.
type Option func(*Service)

// WithConfig overrides the default configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithConnector registers a connector for every action it should handle.
func WithConnector(connector Connector, actions ...string) Option {
	return func(s *Service) {
		for _, action := range actions {
			s.connectors[action] = connector
		}
	}
}

// WithDefaultConnector replaces the fallback connector.
func WithDefaultConnector(connector Connector) Option {
	return func(s *Service) { s.defaultTo = connector }
}

// New creates an executor service draining queue.
func New(queue messaging.Queue[Task], options ...Option) (*Service, error) {
	if queue == nil {
		return nil, fmt.Errorf("execution queue is required")
	}
	s := &Service{
		config:     DefaultConfig(),
		queue:      queue,
		defaultTo:  &LogConnector{},
		connectors: make(map[string]Connector),
	}
	for _, option := range options {
		option(s)
	}
	if s.config.WorkerCount <= 0 {
		return nil, fmt.Errorf("worker count must be > 0")
	}
	return s, nil
}

// Start launches the worker goroutines.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerWg.Add(1)
		go s.run(ctx, i)
	}
}

// Shutdown stops the workers and waits for in-flight tasks to finish.
func (s *Service) Shutdown() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.workerWg.Wait()
}

func (s *Service) run(ctx context.Context, id int) {
	defer s.workerWg.Done()
	for {
		msg, err := s.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			// Transient queue error; back off a bit.
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if msg == nil {
			continue
		}
		if pErr := s.process(ctx, msg); pErr != nil {
			log.Printf("executor worker %d: failed to process task: %v", id, pErr)
		}
	}
}

func (s *Service) process(ctx context.Context, msg messaging.Message[Task]) (err error) {
	task := msg.T()
	ctx, span := tracing.StartSpan(ctx, "executor.process", "CONSUMER")
	defer tracing.EndSpan(span, err)
	span.WithAttributes(map[string]string{"task.id": task.TaskID, "task.action": task.Action})

	connector := s.connectorFor(task.Action)
	if execErr := connector.Execute(ctx, task); execErr != nil {
		err = fmt.Errorf("connector %s failed for task %s: %w", connector.Name(), task.TaskID, execErr)
		_ = msg.Nack(err)
		return err
	}
	return msg.Ack()
}

func (s *Service) connectorFor(action string) Connector {
	if connector, ok := s.connectors[action]; ok {
		return connector
	}
	return s.defaultTo
}
