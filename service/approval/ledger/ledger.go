// Package ledger defines the append-only decision ledger, the authoritative
// at-most-once guard of the approval pipeline. Records are keyed by task id
// and listed in append order; the check-then-append is atomic so exactly one
// of several concurrent deciders wins.
package ledger

import (
	"context"

	"github.com/slateops/slate/service/approval"
)

// Ledger is the append-only store of final approve/reject outcomes.
type Ledger interface {
	// Append stores a record, failing with approval.ErrAlreadyDecided when a
	// record for the same task id already exists. The duplicate check and
	// the append are a single atomic step.
	Append(ctx context.Context, record *approval.DecisionRecord) error

	// Get returns the record for taskID, or nil when the task has not been
	// decided.
	Get(ctx context.Context, taskID string) (*approval.DecisionRecord, error)

	// List returns records in append order. An empty status returns all
	// records; otherwise only those whose decision maps to status.
	List(ctx context.Context, status approval.Status) ([]*approval.DecisionRecord, error)
}

// Matches reports whether a record passes the status filter.
func Matches(record *approval.DecisionRecord, status approval.Status) bool {
	if status == "" {
		return true
	}
	return record.Decision.Status() == status
}
