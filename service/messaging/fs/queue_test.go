package fs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

type testTask struct {
	TaskID string `json:"taskId"`
	Action string `json:"action"`
}

func newTestQueue(t *testing.T, maxRetries int) *Queue[testTask] {
	config := DefaultConfig()
	config.BaseURL = fmt.Sprintf("mem://localhost/slate/queue/%s", t.Name())
	config.MaxRetries = maxRetries
	config.PollInterval = 10 * time.Millisecond
	queue, err := NewQueue[testTask](afs.New(), config)
	assert.NoError(t, err)
	return queue
}

func TestQueuePublishConsumeAck(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue(t, 3)

	assert.NoError(t, queue.Publish(ctx, &testTask{TaskID: "t1", Action: "restock"}))
	assert.NoError(t, queue.Publish(ctx, &testTask{TaskID: "t2", Action: "reduce_price"}))
	assert.Equal(t, 2, queue.PendingSize(ctx))

	// oldest first
	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "t1", message.T().TaskID)
	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())

	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "t2", message.T().TaskID)
	assert.NoError(t, message.Ack())
	assert.Equal(t, 0, queue.PendingSize(ctx))
}

func TestQueueNackRequeuesThenParks(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue(t, 1)

	assert.NoError(t, queue.Publish(ctx, &testTask{TaskID: "t1", Action: "restock"}))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(fmt.Errorf("connector unavailable")))
	assert.Equal(t, 1, queue.PendingSize(ctx))

	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(fmt.Errorf("connector unavailable")))

	// retries exhausted, nothing pending anymore
	assert.Equal(t, 0, queue.PendingSize(ctx))
}

func TestQueueConsumeCancelled(t *testing.T) {
	queue := newTestQueue(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := queue.Consume(ctx)
	assert.Error(t, err)
}
