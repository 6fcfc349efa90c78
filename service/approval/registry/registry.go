// Package registry tracks the single outstanding approval request. There is
// at most one active slot at a time; publishing while an unexpired pending
// entry exists is a conflict, and staleness is evaluated lazily on every
// read rather than by a background scheduler.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slateops/slate/internal/clock"
	"github.com/slateops/slate/internal/idgen"
	"github.com/slateops/slate/model/recommendation"
	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/dao"
	"github.com/slateops/slate/service/dao/store"
)

// DefaultTTL is how long a pending approval stays decidable before it
// transitions to expired.
const DefaultTTL = 24 * time.Hour

// Registry holds the single active pending approval slot.
type Registry struct {
	mu       sync.Mutex
	ttl      time.Duration
	store    dao.Service[string, approval.PendingApproval]
	current  *approval.PendingApproval
	refs     map[string]string // messageRef -> taskID, survives slot clearing
	onExpire func(*approval.PendingApproval)
}

// Option customises a Registry.
type Option func(*Registry)

// WithTTL overrides the pending approval time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithStore sets the backing store so the active slot survives a restart.
func WithStore(s dao.Service[string, approval.PendingApproval]) Option {
	return func(r *Registry) { r.store = s }
}

// WithOnExpire registers a callback invoked once per entry when lazy expiry
// transitions it to expired. The callback runs outside the registry lock.
func WithOnExpire(fn func(*approval.PendingApproval)) Option {
	return func(r *Registry) { r.onExpire = fn }
}

func pendingKey(p *approval.PendingApproval) string { return p.TaskID }

// New creates a Registry with an in-memory backing store by default.
func New(options ...Option) *Registry {
	r := &Registry{
		ttl:  DefaultTTL,
		refs: make(map[string]string),
	}
	for _, option := range options {
		option(r)
	}
	if r.store == nil {
		r.store = store.NewMemoryStore[string, approval.PendingApproval](pendingKey)
	}
	return r
}

// Restore loads a persisted active slot after a restart. With at most one
// entry ever persisted, the first pending or expired record wins.
func (r *Registry) Restore(ctx context.Context) error {
	records, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore pending approval: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range records {
		if record.Status == approval.StatusPending || record.Status == approval.StatusExpired {
			entry := *record
			r.current = &entry
			if entry.ExternalMessageRef != "" {
				r.refs[entry.ExternalMessageRef] = entry.TaskID
			}
			break
		}
	}
	return nil
}

// Publish opens a new pending approval for rec. It fails with ErrConflict
// while an unexpired pending entry exists; an expired slot is superseded.
func (r *Registry) Publish(ctx context.Context, rec recommendation.Recommendation, channel approval.Channel) (*approval.PendingApproval, error) {
	r.mu.Lock()
	expired := r.expireLocked(clock.Now())
	if r.current != nil && r.current.Status == approval.StatusPending {
		r.mu.Unlock()
		r.fireExpired(expired)
		return nil, approval.ErrConflict
	}
	superseded := r.current
	entry := &approval.PendingApproval{
		TaskID:         idgen.New(),
		Recommendation: rec,
		SentAt:         clock.Now(),
		Channel:        channel,
		Status:         approval.StatusPending,
	}
	r.current = entry
	published := *entry
	r.mu.Unlock()
	r.fireExpired(expired)

	if superseded != nil {
		if err := r.store.Delete(ctx, superseded.TaskID); err != nil {
			return nil, err
		}
	}
	if err := r.store.Save(ctx, &published); err != nil {
		return nil, err
	}
	result := published
	return &result, nil
}

// Current returns a copy of the active entry, or nil when the slot is empty.
func (r *Registry) Current(ctx context.Context) (*approval.PendingApproval, error) {
	r.mu.Lock()
	expired := r.expireLocked(clock.Now())
	var result *approval.PendingApproval
	if r.current != nil {
		entry := *r.current
		result = &entry
	}
	r.mu.Unlock()
	if expired != nil {
		_ = r.store.Save(ctx, expired)
	}
	r.fireExpired(expired)
	return result, nil
}

// Get returns a copy of the active entry when it matches taskID.
func (r *Registry) Get(ctx context.Context, taskID string) (*approval.PendingApproval, error) {
	r.mu.Lock()
	expired := r.expireLocked(clock.Now())
	var result *approval.PendingApproval
	if r.current != nil && r.current.TaskID == taskID {
		entry := *r.current
		result = &entry
	}
	r.mu.Unlock()
	if expired != nil {
		_ = r.store.Save(ctx, expired)
	}
	r.fireExpired(expired)
	return result, nil
}

// MarkDecided transitions the active entry to a terminal status and clears
// the slot. The ledger remains the idempotency guard of record; this is the
// registry-level guard.
func (r *Registry) MarkDecided(ctx context.Context, taskID string, status approval.Status) error {
	if !status.Terminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}
	r.mu.Lock()
	if r.current == nil || r.current.TaskID != taskID {
		r.mu.Unlock()
		return approval.ErrNotFound
	}
	if r.current.Status.Terminal() {
		r.mu.Unlock()
		return approval.ErrAlreadyDecided
	}
	r.current.Status = status
	r.current = nil
	r.mu.Unlock()
	return r.store.Delete(ctx, taskID)
}

// SetMessageRef records the chat message handle on the active entry once the
// notification is delivered.
func (r *Registry) SetMessageRef(ctx context.Context, taskID, messageRef string) error {
	r.mu.Lock()
	if r.current == nil || r.current.TaskID != taskID {
		r.mu.Unlock()
		return approval.ErrNotFound
	}
	r.current.ExternalMessageRef = messageRef
	r.refs[messageRef] = taskID
	updated := *r.current
	r.mu.Unlock()
	return r.store.Save(ctx, &updated)
}

// ResolveMessageRef maps a chat callback reference to its task id. The
// mapping survives slot clearing so a late button click on a decided task
// resolves to the recorded outcome instead of a not-found error.
func (r *Registry) ResolveMessageRef(messageRef string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	taskID, ok := r.refs[messageRef]
	return taskID, ok
}

// expireLocked transitions an overdue pending entry to expired and returns
// it, or nil when nothing changed. Expired entries stay in the slot until
// superseded so a late decision gets ErrExpired rather than ErrNotFound.
func (r *Registry) expireLocked(now time.Time) *approval.PendingApproval {
	if r.current == nil || r.current.Status != approval.StatusPending {
		return nil
	}
	if now.Sub(r.current.SentAt) <= r.ttl {
		return nil
	}
	r.current.Status = approval.StatusExpired
	entry := *r.current
	return &entry
}

func (r *Registry) fireExpired(entry *approval.PendingApproval) {
	if entry == nil || r.onExpire == nil {
		return
	}
	r.onExpire(entry)
}
