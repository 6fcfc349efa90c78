package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slateops/slate/service/messaging/memory"
)

type captureConnector struct {
	name    string
	mu      sync.Mutex
	tasks   []*Task
	failFor map[string]int // taskID -> remaining failures
}

func (c *captureConnector) Name() string { return c.name }

func (c *captureConnector) Execute(_ context.Context, task *Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if remaining, ok := c.failFor[task.TaskID]; ok && remaining > 0 {
		c.failFor[task.TaskID] = remaining - 1
		return fmt.Errorf("simulated outage")
	}
	c.tasks = append(c.tasks, task)
	return nil
}

func (c *captureConnector) executed() []*Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

func TestDispatchByAction(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewQueue[Task](memory.DefaultConfig())

	accounting := &captureConnector{name: "accounting"}
	fallback := &captureConnector{name: "fallback"}

	svc, err := New(queue,
		WithConfig(Config{WorkerCount: 2}),
		WithConnector(accounting, "restock"),
		WithDefaultConnector(fallback),
	)
	require.NoError(t, err)

	svc.Start(ctx)
	defer svc.Shutdown()

	require.NoError(t, queue.Publish(ctx, &Task{TaskID: "t1", Action: "restock", EnqueuedAt: time.Now()}))
	require.NoError(t, queue.Publish(ctx, &Task{TaskID: "t2", Action: "adjust_campaign", EnqueuedAt: time.Now()}))

	assert.Eventually(t, func() bool {
		return len(accounting.executed()) == 1 && len(fallback.executed()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "t1", accounting.executed()[0].TaskID)
	assert.Equal(t, "t2", fallback.executed()[0].TaskID)
}

func TestRetryAfterConnectorFailure(t *testing.T) {
	ctx := context.Background()
	config := memory.DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := memory.NewQueue[Task](config)

	connector := &captureConnector{
		name:    "flaky",
		failFor: map[string]int{"t1": 1},
	}
	svc, err := New(queue, WithDefaultConnector(connector))
	require.NoError(t, err)

	svc.Start(ctx)
	defer svc.Shutdown()

	require.NoError(t, queue.Publish(ctx, &Task{TaskID: "t1", Action: "restock", EnqueuedAt: time.Now()}))

	// first attempt fails, queue retry delivers it again
	assert.Eventually(t, func() bool {
		return len(connector.executed()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	queue := memory.NewQueue[Task](memory.DefaultConfig())
	_, err = New(queue, WithConfig(Config{WorkerCount: 0}))
	assert.Error(t, err)
}
