package approval

import (
	"context"

	"github.com/slateops/slate/model/recommendation"
	"github.com/slateops/slate/service/messaging"
)

// Service defines the approval coordinator interface. It orchestrates the
// recommendation store, the pending approval registry and the decision
// ledger, and triggers the notification and execution side effects.
type Service interface {
	// Publish makes rec the current slate and opens a pending approval for
	// it, returning the new task id. It fails with ErrConflict while an
	// unexpired pending approval exists.
	Publish(ctx context.Context, rec recommendation.Recommendation) (string, error)

	// CurrentPending returns the outstanding approval request, or nil when
	// there is none. Staleness is evaluated on every call.
	CurrentPending(ctx context.Context) (*PendingApproval, error)

	// Decide records a decision for taskID. Exactly one concurrent caller
	// observes AlreadyDecided=false; all others receive the recorded outcome
	// with AlreadyDecided=true and a nil error.
	Decide(ctx context.Context, taskID string, decision Decision, actor string, via Channel) (*Outcome, error)

	// DecideByMessageRef resolves a chat-channel callback reference to its
	// task id and applies the decision.
	DecideByMessageRef(ctx context.Context, messageRef string, decision Decision, actor string) (*Outcome, error)

	// History lists decision records in append order, optionally filtered by
	// terminal status.
	History(ctx context.Context, status Status) ([]*DecisionRecord, error)

	// Queue exposes the approval event fan-out.
	Queue() messaging.Queue[Event]
}

// Dispatcher is the notification channel contract. Send delivers an approval
// prompt and returns an opaque message reference used to correlate the
// asynchronous button-click callback; NotifyDecision announces a recorded
// outcome. Both are best-effort: their failure never affects a decision.
type Dispatcher interface {
	Send(ctx context.Context, pending *PendingApproval) (messageRef string, err error)
	NotifyDecision(ctx context.Context, record *DecisionRecord) error
}
