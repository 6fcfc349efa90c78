package slack

import (
	"context"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slateops/slate/internal/idgen"
	"github.com/slateops/slate/model/recommendation"
	"github.com/slateops/slate/service/approval"
)

type capturingPoster struct {
	channel string
	options [][]slack.MsgOption
}

func (p *capturingPoster) PostMessageContext(_ context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	p.channel = channelID
	p.options = append(p.options, options)
	return channelID, "1717000000.000100", nil
}

func testPending() *approval.PendingApproval {
	return &approval.PendingApproval{
		TaskID: "task-1",
		Recommendation: recommendation.Recommendation{
			Action:      "restock",
			Quantity:    40,
			ExpectedROI: "12%",
			Confidence:  recommendation.ConfidenceHigh,
			Reasoning:   "7 days of cover left",
			Alternatives: []recommendation.Alternative{
				{Action: "reduce_price", Quantity: 20, ExpectedROI: "8%"},
				{Action: "bundle", ExpectedROI: "5%"},
				{Action: "hold"},
			},
		},
		SentAt: time.Now(),
	}
}

func TestSendReturnsMessageRef(t *testing.T) {
	previous := idgen.NewFunc
	idgen.NewFunc = func() string { return "ref-fixed" }
	t.Cleanup(func() { idgen.NewFunc = previous })

	poster := &capturingPoster{}
	dispatcher := NewWithClient(poster, "C012345")

	ref, err := dispatcher.Send(context.Background(), testPending())
	require.NoError(t, err)
	assert.Equal(t, "ref-fixed", ref)
	assert.Equal(t, "C012345", poster.channel)
	require.Len(t, poster.options, 1)
}

func TestPromptBlocks(t *testing.T) {
	pending := testPending()
	blocks := promptBlocks(&pending.Recommendation, "ref-1")
	require.Len(t, blocks, 5)

	_, ok := blocks[0].(*slack.HeaderBlock)
	assert.True(t, ok)

	actions, ok := blocks[len(blocks)-1].(*slack.ActionBlock)
	require.True(t, ok)
	require.Len(t, actions.Elements.ElementSet, 2)
	approve, ok := actions.Elements.ElementSet[0].(*slack.ButtonBlockElement)
	require.True(t, ok)
	assert.Equal(t, ActionApprove, approve.ActionID)
	assert.Equal(t, "ref-1", approve.Value)
	reject, ok := actions.Elements.ElementSet[1].(*slack.ButtonBlockElement)
	require.True(t, ok)
	assert.Equal(t, ActionReject, reject.ActionID)
	assert.Equal(t, "ref-1", reject.Value)
}

func TestPromptBlocksMinimal(t *testing.T) {
	rec := recommendation.Recommendation{Action: "restock", Quantity: 5, ExpectedROI: "3%", Confidence: recommendation.ConfidenceLow}
	blocks := promptBlocks(&rec, "ref-2")
	// header, fields, actions only
	assert.Len(t, blocks, 3)
}

func TestAlternativesText(t *testing.T) {
	testCases := []struct {
		description  string
		alternatives []recommendation.Alternative
		expected     string
	}{
		{
			description: "empty",
		},
		{
			description:  "single",
			alternatives: []recommendation.Alternative{{Action: "hold"}},
			expected:     "Alternatives: hold",
		},
		{
			description: "capped at two",
			alternatives: []recommendation.Alternative{
				{Action: "reduce_price", Quantity: 20, ExpectedROI: "8%"},
				{Action: "bundle", ExpectedROI: "5%"},
				{Action: "hold"},
			},
			expected: "Alternatives: reduce_price (20 units), ROI 8% | bundle, ROI 5%",
		},
	}
	for _, testCase := range testCases {
		actual := alternativesText(testCase.alternatives)
		assert.Equal(t, testCase.expected, actual, testCase.description)
	}
}

func TestDecisionText(t *testing.T) {
	record := &approval.DecisionRecord{
		TaskID:    "task-1",
		Decision:  approval.DecisionApproved,
		DecidedBy: "user-A",
		DecidedVia: approval.ChannelUI,
		Recommendation: recommendation.Recommendation{
			Action: "restock", Quantity: 40, ExpectedROI: "12%", Confidence: recommendation.ConfidenceHigh,
		},
	}
	text := decisionText(record)
	assert.Contains(t, text, "approved by user-A")
	assert.Contains(t, text, "restock 40 units")

	record.Decision = approval.DecisionRejected
	assert.Contains(t, decisionText(record), "rejected by user-A")
}
