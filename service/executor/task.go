package executor

import "time"

// Task is the unit handed to the downstream execution system once a
// recommendation is approved. The pipeline owns it only until enqueue; it
// does not track downstream completion.
type Task struct {
	TaskID     string                 `json:"taskId"`
	Action     string                 `json:"action"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	EnqueuedAt time.Time              `json:"enqueuedAt"`
	Priority   int                    `json:"priority"`
}
