package coordinator

import (
	"time"

	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/approval/ledger"
	"github.com/slateops/slate/service/dao"
	"github.com/slateops/slate/service/approval/registry"
	"github.com/slateops/slate/service/executor"
	"github.com/slateops/slate/service/messaging"
	"github.com/slateops/slate/service/slate"
)

// Option customises the coordinator.
type Option func(*service)

// WithStore sets the recommendation store.
func WithStore(store *slate.Store) Option {
	return func(s *service) { s.store = store }
}

// WithRegistry sets the pending approval registry. When supplied, the caller
// owns the registry's TTL and expiry callback wiring.
func WithRegistry(r *registry.Registry) Option {
	return func(s *service) { s.registry = r }
}

// WithPendingStore backs the default registry with a persistent pending
// approval store so the slot survives a restart. Ignored when WithRegistry
// supplies a pre-configured registry.
func WithPendingStore(store dao.Service[string, approval.PendingApproval]) Option {
	return func(s *service) { s.pendingStore = store }
}

// WithLedger sets the decision ledger.
func WithLedger(l ledger.Ledger) Option {
	return func(s *service) { s.ledger = l }
}

// WithExecutionQueue sets the downstream execution intake.
func WithExecutionQueue(q messaging.Queue[executor.Task]) Option {
	return func(s *service) { s.execQueue = q }
}

// WithEventQueue sets the approval event fan-out queue.
func WithEventQueue(q messaging.Queue[approval.Event]) Option {
	return func(s *service) { s.events = q }
}

// WithDispatcher attaches the chat notification channel. Publishing then
// sends an approval prompt and decisions are announced back to the channel.
func WithDispatcher(d approval.Dispatcher) Option {
	return func(s *service) { s.dispatcher = d }
}

// WithTTL overrides how long a pending approval stays decidable. Ignored
// when WithRegistry supplies a pre-configured registry.
func WithTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithNotifyTimeout bounds each asynchronous notification attempt.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(s *service) {
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}
