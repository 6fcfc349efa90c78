package memory

import (
	"context"
	"sync"

	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/approval/ledger"
)

// Ledger is an in-memory append-only decision ledger. A mutex makes the
// duplicate-check-then-append atomic; the slice preserves append order for
// audit listings.
type Ledger struct {
	mu      sync.RWMutex
	byTask  map[string]*approval.DecisionRecord
	ordered []*approval.DecisionRecord
}

// New creates an empty in-memory ledger.
func New() *Ledger {
	return &Ledger{byTask: make(map[string]*approval.DecisionRecord)}
}

// Append stores a record unless the task was already decided.
func (l *Ledger) Append(_ context.Context, record *approval.DecisionRecord) error {
	if record == nil || record.TaskID == "" {
		return approval.ErrNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byTask[record.TaskID]; ok {
		return approval.ErrAlreadyDecided
	}
	stored := *record
	l.byTask[record.TaskID] = &stored
	l.ordered = append(l.ordered, &stored)
	return nil
}

// Get returns the record for taskID, or nil when absent.
func (l *Ledger) Get(_ context.Context, taskID string) (*approval.DecisionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.byTask[taskID]
	if !ok {
		return nil, nil
	}
	result := *record
	return &result, nil
}

// List returns records in append order, optionally filtered by status.
func (l *Ledger) List(_ context.Context, status approval.Status) ([]*approval.DecisionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*approval.DecisionRecord, 0, len(l.ordered))
	for _, record := range l.ordered {
		if !ledger.Matches(record, status) {
			continue
		}
		result := *record
		out = append(out, &result)
	}
	return out, nil
}

var _ ledger.Ledger = (*Ledger)(nil)
