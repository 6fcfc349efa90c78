package executor

import (
	"context"
	"log"
)

// Connector integrates an approved task with a downstream system (an
// accounting connector, an inventory API). Delivery is at-least-once: a
// connector must tolerate seeing the same task id twice.
type Connector interface {
	// Name identifies the connector in logs and the registry.
	Name() string

	// Execute carries out the task. A returned error causes the queue-level
	// retry to kick in.
	Execute(ctx context.Context, task *Task) error
}

// LogConnector is the default sink: it records tasks without side effects.
// Useful in development and as the fallback when no connector matches.
type LogConnector struct{}

func (c *LogConnector) Name() string { return "log" }

func (c *LogConnector) Execute(_ context.Context, task *Task) error {
	log.Printf("executor: task %s action=%s priority=%d", task.TaskID, task.Action, task.Priority)
	return nil
}
