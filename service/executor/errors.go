package executor

import "errors"

// ErrEnqueueFailed marks an approved task that could not be handed to the
// execution queue. The decision that produced it is never rolled back.
var ErrEnqueueFailed = errors.New("failed to enqueue execution task")
