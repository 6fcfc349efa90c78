// Package slack delivers approval prompts to a Slack channel as Block Kit
// messages and turns button interactions back into decisions.
package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/slateops/slate/internal/idgen"
	"github.com/slateops/slate/model/recommendation"
	"github.com/slateops/slate/service/approval"
)

const (
	// ActionApprove and ActionReject identify the interaction buttons.
	ActionApprove = "slate_approve"
	ActionReject  = "slate_reject"

	decisionBlockID = "slate_decision"
)

// poster is the subset of the Slack client the dispatcher needs.
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Dispatcher posts approval prompts to a Slack channel. Each prompt carries
// an opaque message reference in its button values; interaction callbacks
// resolve decisions through that reference rather than a raw task ID.
type Dispatcher struct {
	api     poster
	channel string
}

// New builds a dispatcher from a resolved bot token and target channel.
func New(token, channel string) *Dispatcher {
	return &Dispatcher{api: slack.New(token), channel: channel}
}

// NewWithClient builds a dispatcher around an existing client, used in tests.
func NewWithClient(api poster, channel string) *Dispatcher {
	return &Dispatcher{api: api, channel: channel}
}

// Send posts the approval prompt and returns the message reference embedded
// in its buttons.
func (d *Dispatcher) Send(ctx context.Context, pending *approval.PendingApproval) (string, error) {
	messageRef := idgen.New()
	blocks := promptBlocks(&pending.Recommendation, messageRef)
	_, _, err := d.api.PostMessageContext(ctx, d.channel,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(pending.Recommendation.Summary(), false),
	)
	if err != nil {
		return "", fmt.Errorf("failed to post approval prompt: %w", err)
	}
	return messageRef, nil
}

// NotifyDecision posts a confirmation once a decision is recorded.
func (d *Dispatcher) NotifyDecision(ctx context.Context, record *approval.DecisionRecord) error {
	_, _, err := d.api.PostMessageContext(ctx, d.channel,
		slack.MsgOptionText(decisionText(record), false),
	)
	if err != nil {
		return fmt.Errorf("failed to post decision notice: %w", err)
	}
	return nil
}

// promptBlocks renders the recommendation as a Block Kit approval prompt.
func promptBlocks(rec *recommendation.Recommendation, messageRef string) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Recommended action", false, false)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Action:*\n%s", rec.Action), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Quantity:*\n%d", rec.Quantity), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Expected ROI:*\n%s", rec.ExpectedROI), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Confidence:*\n%s", rec.Confidence), false, false),
		}, nil),
	}
	if rec.Reasoning != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Reasoning:*\n%s", rec.Reasoning), false, false),
			nil, nil))
	}
	if alternatives := alternativesText(rec.Alternatives); alternatives != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, alternatives, false, false)))
	}
	blocks = append(blocks, slack.NewActionBlock(decisionBlockID,
		slack.NewButtonBlockElement(ActionApprove, messageRef,
			slack.NewTextBlockObject(slack.PlainTextType, "Approve", false, false)).WithStyle(slack.StylePrimary),
		slack.NewButtonBlockElement(ActionReject, messageRef,
			slack.NewTextBlockObject(slack.PlainTextType, "Reject", false, false)).WithStyle(slack.StyleDanger),
	))
	return blocks
}

// alternativesText lists up to two alternative actions in a context line.
func alternativesText(alternatives []recommendation.Alternative) string {
	if len(alternatives) == 0 {
		return ""
	}
	if len(alternatives) > 2 {
		alternatives = alternatives[:2]
	}
	var parts []string
	for _, alternative := range alternatives {
		part := alternative.Action
		if alternative.Quantity > 0 {
			part = fmt.Sprintf("%s (%d units)", part, alternative.Quantity)
		}
		if alternative.ExpectedROI != "" {
			part = fmt.Sprintf("%s, ROI %s", part, alternative.ExpectedROI)
		}
		parts = append(parts, part)
	}
	return "Alternatives: " + strings.Join(parts, " | ")
}

func decisionText(record *approval.DecisionRecord) string {
	verb, emoji := "rejected", ":no_entry:"
	if record.Decision == approval.DecisionApproved {
		verb, emoji = "approved", ":white_check_mark:"
	}
	return fmt.Sprintf("%s %s %s by %s via %s",
		emoji, record.Recommendation.Summary(), verb, record.DecidedBy, record.DecidedVia)
}

var _ approval.Dispatcher = (*Dispatcher)(nil)
