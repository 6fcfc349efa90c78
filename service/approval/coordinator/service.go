// Package coordinator implements the approval state machine:
//
//	NoActiveRecommendation -> Published(pending) -> {Approved, Rejected, Expired}
//
// Terminal states are sinks. The decision ledger's atomic append is the
// single point of truth for who decided; the first caller to win it records
// the decision and everyone else is told who did.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/slateops/slate/internal/clock"
	"github.com/slateops/slate/model/recommendation"
	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/approval/ledger"
	lmemory "github.com/slateops/slate/service/approval/ledger/memory"
	"github.com/slateops/slate/service/approval/registry"
	"github.com/slateops/slate/service/dao"
	"github.com/slateops/slate/service/executor"
	"github.com/slateops/slate/service/messaging"
	qmemory "github.com/slateops/slate/service/messaging/memory"
	"github.com/slateops/slate/service/slate"
	"github.com/slateops/slate/tracing"
)

type service struct {
	store      *slate.Store
	registry   *registry.Registry
	ledger     ledger.Ledger
	execQueue  messaging.Queue[executor.Task]
	events     messaging.Queue[approval.Event]
	dispatcher approval.Dispatcher

	pendingStore dao.Service[string, approval.PendingApproval]

	channel       approval.Channel
	ttl           time.Duration
	notifyTimeout time.Duration

	// publishMu guards the conflict-check-then-set across the registry and
	// the recommendation store so two concurrent generation cycles cannot
	// both claim the slot.
	publishMu sync.Mutex
}

// New creates an approval coordinator. Without options it runs fully
// in-memory with no notification channel (UI is the only surface).
func New(options ...Option) approval.Service {
	s := &service{
		ttl:           registry.DefaultTTL,
		notifyTimeout: 30 * time.Second,
	}
	for _, option := range options {
		option(s)
	}
	if s.store == nil {
		s.store = slate.NewStore()
	}
	if s.ledger == nil {
		s.ledger = lmemory.New()
	}
	if s.events == nil {
		s.events = qmemory.NewQueue[approval.Event](qmemory.DefaultConfig())
	}
	if s.execQueue == nil {
		s.execQueue = qmemory.NewQueue[executor.Task](qmemory.DefaultConfig())
	}
	if s.registry == nil {
		registryOptions := []registry.Option{
			registry.WithTTL(s.ttl),
			registry.WithOnExpire(func(p *approval.PendingApproval) {
				s.publishEvent(approval.TopicExpired, p)
			}),
		}
		if s.pendingStore != nil {
			registryOptions = append(registryOptions, registry.WithStore(s.pendingStore))
		}
		s.registry = registry.New(registryOptions...)
	}
	s.channel = approval.ChannelUI
	if s.dispatcher != nil {
		s.channel = approval.ChannelBoth
	}
	return s
}

func (s *service) Publish(ctx context.Context, rec recommendation.Recommendation) (taskID string, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.publish", "INTERNAL")
	defer tracing.EndSpan(span, err)

	if err = rec.Validate(); err != nil {
		return "", err
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	pending, err := s.registry.Publish(ctx, rec, s.channel)
	if err != nil {
		// On conflict the store is left untouched: it still reflects the
		// recommendation with the open decision.
		return "", err
	}
	s.store.Set(rec)
	span.WithAttributes(map[string]string{"task.id": pending.TaskID, "action": rec.Action})

	s.publishEvent(approval.TopicRequested, pending)
	if s.dispatcher != nil {
		go s.dispatchRequest(pending)
	}
	return pending.TaskID, nil
}

func (s *service) CurrentPending(ctx context.Context) (*approval.PendingApproval, error) {
	return s.registry.Current(ctx)
}

func (s *service) Decide(ctx context.Context, taskID string, decision approval.Decision, actor string, via approval.Channel) (outcome *approval.Outcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.decide", "INTERNAL")
	defer tracing.EndSpan(span, err)
	span.WithAttributes(map[string]string{"task.id": taskID, "decision": string(decision), "via": string(via)})

	if taskID == "" {
		return nil, approval.ErrNotFound
	}
	if decision != approval.DecisionApproved && decision != approval.DecisionRejected {
		return nil, fmt.Errorf("invalid decision: %q", decision)
	}

	pending, err := s.registry.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		// The slot may already be cleared; the ledger still answers for
		// decided tasks so a late caller gets the recorded outcome.
		existing, gErr := s.ledger.Get(ctx, taskID)
		if gErr != nil {
			return nil, gErr
		}
		if existing != nil {
			return recordedOutcome(existing), nil
		}
		return nil, approval.ErrNotFound
	}
	if pending.Status == approval.StatusExpired {
		return nil, approval.ErrExpired
	}

	record := &approval.DecisionRecord{
		TaskID:         taskID,
		Decision:       decision,
		DecidedAt:      clock.Now(),
		DecidedBy:      actor,
		DecidedVia:     via,
		Recommendation: pending.Recommendation,
	}
	if aErr := s.ledger.Append(ctx, record); aErr != nil {
		if errors.Is(aErr, approval.ErrAlreadyDecided) {
			existing, gErr := s.ledger.Get(ctx, taskID)
			if gErr != nil {
				return nil, gErr
			}
			return recordedOutcome(existing), nil
		}
		return nil, aErr
	}

	// This caller won the ledger; everything below is side effects that never
	// roll the decision back.
	if mErr := s.registry.MarkDecided(ctx, taskID, decision.Status()); mErr != nil &&
		!errors.Is(mErr, approval.ErrNotFound) && !errors.Is(mErr, approval.ErrAlreadyDecided) {
		log.Printf("approval: failed to clear pending entry %s: %v", taskID, mErr)
	}

	outcome = &approval.Outcome{
		TaskID:     taskID,
		Decision:   decision,
		DecidedBy:  actor,
		DecidedVia: via,
	}
	if decision == approval.DecisionApproved {
		task := buildTask(record)
		if qErr := s.execQueue.Publish(ctx, task); qErr != nil {
			// Degraded success: the decision stands, the enqueue is retried
			// by the operator or a later reconciliation, never rolled back.
			log.Printf("approval: task %s decided but not yet queued: %v",
				taskID, fmt.Errorf("%w: %v", executor.ErrEnqueueFailed, qErr))
		} else {
			outcome.Enqueued = true
		}
	}

	s.publishEvent(approval.TopicDecided, record)
	if s.dispatcher != nil {
		go s.notifyDecision(record)
	}
	return outcome, nil
}

func (s *service) DecideByMessageRef(ctx context.Context, messageRef string, decision approval.Decision, actor string) (*approval.Outcome, error) {
	taskID, ok := s.registry.ResolveMessageRef(messageRef)
	if !ok {
		return nil, approval.ErrNotFound
	}
	return s.Decide(ctx, taskID, decision, actor, approval.ChannelChat)
}

func (s *service) History(ctx context.Context, status approval.Status) ([]*approval.DecisionRecord, error) {
	return s.ledger.List(ctx, status)
}

func (s *service) Queue() messaging.Queue[approval.Event] {
	return s.events
}

// dispatchRequest delivers the approval prompt off the publish path. The
// dispatcher handles its own bounded retry; a final failure only costs the
// chat surface - the UI remains a valid approval surface regardless.
func (s *service) dispatchRequest(pending *approval.PendingApproval) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()
	messageRef, err := s.dispatcher.Send(ctx, pending)
	if err != nil {
		log.Printf("approval: notification delivery failed for task %s: %v", pending.TaskID, err)
		return
	}
	if err := s.registry.SetMessageRef(ctx, pending.TaskID, messageRef); err != nil &&
		!errors.Is(err, approval.ErrNotFound) {
		log.Printf("approval: failed to record message ref for task %s: %v", pending.TaskID, err)
	}
}

func (s *service) notifyDecision(record *approval.DecisionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()
	if err := s.dispatcher.NotifyDecision(ctx, record); err != nil {
		log.Printf("approval: decision notification failed for task %s: %v", record.TaskID, err)
	}
}

func (s *service) publishEvent(topic string, data interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, &approval.Event{Topic: topic, Data: data}); err != nil {
		log.Printf("approval: failed to publish %s event: %v", topic, err)
	}
}

func recordedOutcome(record *approval.DecisionRecord) *approval.Outcome {
	return &approval.Outcome{
		TaskID:         record.TaskID,
		Decision:       record.Decision,
		DecidedBy:      record.DecidedBy,
		DecidedVia:     record.DecidedVia,
		AlreadyDecided: true,
	}
}

func buildTask(record *approval.DecisionRecord) *executor.Task {
	rec := record.Recommendation
	payload := map[string]interface{}{
		"quantity":    rec.Quantity,
		"expectedRoi": rec.ExpectedROI,
		"confidence":  string(rec.Confidence),
	}
	if rec.Category != "" {
		payload["category"] = rec.Category
	}
	if rec.Reasoning != "" {
		payload["reasoning"] = rec.Reasoning
	}
	if rec.PredictedProfit != nil {
		payload["predictedProfit"] = *rec.PredictedProfit
	}
	return &executor.Task{
		TaskID:     record.TaskID,
		Action:     rec.Action,
		Payload:    payload,
		EnqueuedAt: clock.Now(),
		Priority:   priorityFor(rec.Confidence),
	}
}

// priorityFor maps generator confidence onto queue priority; higher
// confidence actions are drained first by priority-aware consumers.
func priorityFor(confidence recommendation.Confidence) int {
	switch confidence {
	case recommendation.ConfidenceHigh:
		return 1
	case recommendation.ConfidenceMedium:
		return 2
	default:
		return 3
	}
}

// Restorer reloads persisted pending state after a restart. The coordinator
// implements it; callers that configured a persistent pending store should
// invoke Restore once before serving traffic.
type Restorer interface {
	Restore(ctx context.Context) error
}

// Restore reloads the persisted pending slot into the registry.
func (s *service) Restore(ctx context.Context) error {
	return s.registry.Restore(ctx)
}

var _ approval.Service = (*service)(nil)
var _ Restorer = (*service)(nil)
