// Package notifier provides approval notification dispatchers and the
// retry policy shared by concrete channels.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/slateops/slate/service/approval"
)

// ErrDeliveryFailed wraps a notification that was abandoned after its retry.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// DefaultRetryDelay spaces the single redelivery attempt.
const DefaultRetryDelay = 2 * time.Second

// Retrying wraps a dispatcher with a retry-once policy: a failed delivery is
// retried after a short delay and then abandoned. Notification delivery is
// best-effort; the approval itself never depends on it.
type Retrying struct {
	delegate approval.Dispatcher
	delay    time.Duration
}

// NewRetrying returns a dispatcher that retries each delegate call once.
func NewRetrying(delegate approval.Dispatcher, options ...RetryOption) *Retrying {
	result := &Retrying{delegate: delegate, delay: DefaultRetryDelay}
	for _, option := range options {
		option(result)
	}
	return result
}

// RetryOption customises the retry policy.
type RetryOption func(*Retrying)

// WithRetryDelay sets the pause before the second attempt.
func WithRetryDelay(delay time.Duration) RetryOption {
	return func(r *Retrying) {
		if delay >= 0 {
			r.delay = delay
		}
	}
}

// Send delivers the approval prompt, retrying once on failure.
func (r *Retrying) Send(ctx context.Context, pending *approval.PendingApproval) (string, error) {
	messageRef, err := r.delegate.Send(ctx, pending)
	if err == nil {
		return messageRef, nil
	}
	log.Printf("notifier: send failed for task %s, retrying: %v", pending.TaskID, err)
	if waitErr := r.wait(ctx); waitErr != nil {
		return "", waitErr
	}
	messageRef, retryErr := r.delegate.Send(ctx, pending)
	if retryErr != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, retryErr)
	}
	return messageRef, nil
}

// NotifyDecision announces the decision, retrying once on failure.
func (r *Retrying) NotifyDecision(ctx context.Context, record *approval.DecisionRecord) error {
	err := r.delegate.NotifyDecision(ctx, record)
	if err == nil {
		return nil
	}
	log.Printf("notifier: decision notice failed for task %s, retrying: %v", record.TaskID, err)
	if waitErr := r.wait(ctx); waitErr != nil {
		return waitErr
	}
	if retryErr := r.delegate.NotifyDecision(ctx, record); retryErr != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, retryErr)
	}
	return nil
}

func (r *Retrying) wait(ctx context.Context) error {
	if r.delay == 0 {
		return nil
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Noop is a dispatcher that drops every notification. Useful when no chat
// channel is configured and in tests.
type Noop struct{}

// Send implements approval.Dispatcher.
func (Noop) Send(context.Context, *approval.PendingApproval) (string, error) { return "", nil }

// NotifyDecision implements approval.Dispatcher.
func (Noop) NotifyDecision(context.Context, *approval.DecisionRecord) error { return nil }

var _ approval.Dispatcher = (*Retrying)(nil)
var _ approval.Dispatcher = Noop{}
