package approval

import "errors"

// Errors that affect the correctness of a decision are returned synchronously
// to callers; side-channel failures (notification delivery, downstream
// enqueue) never surface through these.

var (
	// ErrConflict is returned by Publish while an unexpired pending approval
	// exists. The generator must wait for a decision or expiry rather than
	// queue a second outstanding prompt.
	ErrConflict = errors.New("approval: pending approval already exists")

	// ErrNotFound is returned when deciding a task id with no matching
	// pending approval and no ledger record. This also covers forged or
	// stale chat callback references.
	ErrNotFound = errors.New("approval: task not found")

	// ErrExpired is returned when deciding a task whose pending approval
	// passed its TTL before any decision arrived.
	ErrExpired = errors.New("approval: task expired")

	// ErrAlreadyDecided is the ledger's duplicate-append signal. The
	// coordinator converts it into an Outcome with AlreadyDecided set; it is
	// a no-op marker for the race loser, not a failure.
	ErrAlreadyDecided = errors.New("approval: task already decided")
)
