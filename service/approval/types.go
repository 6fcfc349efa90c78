package approval

import (
	"time"

	"github.com/slateops/slate/model/recommendation"
)

// Status of a pending approval.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// Channel identifies the surface a decision request was sent through or a
// decision was submitted from.
type Channel string

const (
	ChannelUI   Channel = "ui"
	ChannelChat Channel = "chat"
	ChannelBoth Channel = "both"
)

// Decision is the outcome a human selected.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Status maps a decision to the corresponding terminal status.
func (d Decision) Status() Status {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusRejected
}

// PendingApproval represents one outstanding decision request. The
// recommendation is snapshotted at publish time; a later generation cycle
// never changes what the approver saw.
type PendingApproval struct {
	TaskID             string                        `json:"taskId"`
	Recommendation     recommendation.Recommendation `json:"recommendation"`
	SentAt             time.Time                     `json:"sentAt"`
	Channel            Channel                       `json:"channel"`
	Status             Status                        `json:"status"`
	ExternalMessageRef string                        `json:"externalMessageRef,omitempty"`
}

// DecisionRecord is the append-only record of a final approve/reject outcome.
// Records are never mutated or deleted; the ledger holding them is the source
// of truth for "has this task already been decided".
type DecisionRecord struct {
	TaskID         string                        `json:"taskId"`
	Decision       Decision                      `json:"decision"`
	DecidedAt      time.Time                     `json:"decidedAt"`
	DecidedBy      string                        `json:"decidedBy"`
	DecidedVia     Channel                       `json:"decidedVia"`
	Recommendation recommendation.Recommendation `json:"recommendation"`
}

// Outcome is returned by Decide. AlreadyDecided distinguishes the race loser
// ("someone else already decided this") from a freshly recorded decision;
// Enqueued is false on a degraded success where the decision stands but the
// downstream enqueue failed.
type Outcome struct {
	TaskID         string   `json:"taskId"`
	Decision       Decision `json:"decision"`
	DecidedBy      string   `json:"decidedBy"`
	DecidedVia     Channel  `json:"decidedVia"`
	AlreadyDecided bool     `json:"alreadyDecided"`
	Enqueued       bool     `json:"enqueued"`
}

// Event envelope published on the approval fan-out queue.
type Event struct {
	Topic   string            `json:"topic"`
	Data    interface{}       `json:"data"` // *PendingApproval | *DecisionRecord
	Headers map[string]string `json:"headers,omitempty"`
}

// Standard event topics.
const (
	TopicRequested = "approval.requested"
	TopicDecided   = "approval.decided"
	TopicExpired   = "approval.expired"
)
