package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/slateops/slate/internal/idgen"
	"github.com/slateops/slate/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue.
type MessageState string

const (
	// MessageStatePending indicates a message is waiting to be processed
	MessageStatePending MessageState = "pending"

	// MessageStateProcessing indicates a message is being processed
	MessageStateProcessing MessageState = "processing"

	// MessageStateCompleted indicates a message was successfully processed
	MessageStateCompleted MessageState = "completed"

	// MessageStateFailed indicates a message exhausted its retries
	MessageStateFailed MessageState = "failed"
)

// Message implements messaging.Message for the filesystem queue.
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	name      string
	processed bool
	mu        sync.Mutex
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack acknowledges that the message was processed successfully.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = time.Now()
	return m.queue.completeMessage(context.Background(), m)
}

// Nack indicates that the message processing failed; the message is requeued
// until MaxRetries is exceeded, then parked in the dead letter directory.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = time.Now()
	return m.queue.failMessage(context.Background(), m)
}

// Config holds configuration for the filesystem queue.
type Config struct {
	BaseURL      string        // Base location for queue folders; any afs scheme
	MaxRetries   int           // Maximum number of retry attempts
	PollInterval time.Duration // How often Consume re-checks the pending folder
}

// DefaultConfig returns a default queue configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		PollInterval: 100 * time.Millisecond,
	}
}

// Queue implements a filesystem-based messaging.Queue so that queued
// execution tasks survive a process restart.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates a new filesystem-based queue rooted at config.BaseURL.
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    path.Join(config.BaseURL, "pending"),
		processingDir: path.Join(config.BaseURL, "processing"),
		completedDir:  path.Join(config.BaseURL, "completed"),
		dlqDir:        path.Join(config.BaseURL, "dlq"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.dlqDir} {
		exists, _ := fs.Exists(ctx, dir)
		if !exists {
			if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return q, nil
}

// Publish writes a new message into the pending folder. File names embed a
// nanosecond timestamp so lexical order approximates publish order.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("payload cannot be nil")
	}
	now := time.Now()
	msg := &Message[T]{
		ID:        idgen.New(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	msg.name = fmt.Sprintf("%020d-%s.json", now.UnixNano(), msg.ID)
	return q.write(ctx, q.pendingDir, msg)
}

// Consume takes the oldest pending message and moves it to the processing
// folder. It polls until a message arrives or the context is cancelled.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()
	for {
		msg, err := q.takePending(ctx)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *Queue[T]) takePending(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	var names []string
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		names = append(names, object.Name())
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	name := names[0]
	data, err := q.fs.DownloadWithURL(ctx, path.Join(q.pendingDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", name, err)
	}
	var msg Message[T]
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", name, err)
	}
	msg.queue = q
	msg.name = name
	msg.State = MessageStateProcessing
	msg.UpdatedAt = time.Now()

	if err := q.write(ctx, q.processingDir, &msg); err != nil {
		return nil, err
	}
	if err := q.fs.Delete(ctx, path.Join(q.pendingDir, name)); err != nil {
		return nil, fmt.Errorf("failed to remove pending message %s: %w", name, err)
	}
	return &msg, nil
}

func (q *Queue[T]) completeMessage(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.write(ctx, q.completedDir, m); err != nil {
		return err
	}
	return q.fs.Delete(ctx, path.Join(q.processingDir, m.name))
}

func (q *Queue[T]) failMessage(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.fs.Delete(ctx, path.Join(q.processingDir, m.name)); err != nil {
		return fmt.Errorf("failed to remove processing message %s: %w", m.name, err)
	}
	if m.Retries > q.config.MaxRetries {
		m.State = MessageStateFailed
		return q.write(ctx, q.dlqDir, m)
	}
	m.State = MessageStatePending
	return q.write(ctx, q.pendingDir, m)
}

func (q *Queue[T]) write(ctx context.Context, dir string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	URL := path.Join(dir, m.name)
	if err := q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write message %s: %w", URL, err)
	}
	return nil
}

// PendingSize returns the number of messages waiting in the pending folder.
func (q *Queue[T]) PendingSize(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return 0
	}
	count := 0
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			count++
		}
	}
	return count
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
