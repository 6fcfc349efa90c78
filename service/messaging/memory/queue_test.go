package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testTask struct {
	TaskID string
	Action string
}

func TestQueue(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[testTask](config)

	ctx := context.Background()
	payload := testTask{TaskID: "task-1", Action: "restock"}

	err := queue.Publish(ctx, &payload)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.Equal(t, 0, queue.Size())

	assert.Equal(t, payload.TaskID, message.T().TaskID)
	assert.Equal(t, payload.Action, message.T().Action)

	assert.NoError(t, message.Ack())
	// double ack is rejected
	assert.Error(t, message.Ack())
}

func TestQueueRetriesAndDLQ(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[testTask](config)

	ctx := context.Background()
	assert.NoError(t, queue.Publish(ctx, &testTask{TaskID: "retry", Action: "restock"}))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(nil))

	// wait for the retry to be requeued
	time.Sleep(30 * time.Millisecond)

	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(nil))

	// retries exhausted - message parked in DLQ
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueueConsumeCancelled(t *testing.T) {
	queue := NewQueue[testTask](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := queue.Consume(ctx)
	assert.Error(t, err)
}
