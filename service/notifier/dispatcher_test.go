package notifier

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slateops/slate/service/approval"
)

type flakyDispatcher struct {
	failures  int
	sendCalls int
	noteCalls int
}

func (d *flakyDispatcher) Send(context.Context, *approval.PendingApproval) (string, error) {
	d.sendCalls++
	if d.sendCalls <= d.failures {
		return "", fmt.Errorf("transient failure %d", d.sendCalls)
	}
	return "ref-1", nil
}

func (d *flakyDispatcher) NotifyDecision(context.Context, *approval.DecisionRecord) error {
	d.noteCalls++
	if d.noteCalls <= d.failures {
		return fmt.Errorf("transient failure %d", d.noteCalls)
	}
	return nil
}

func TestRetryingSend(t *testing.T) {
	testCases := []struct {
		description   string
		failures      int
		expectError   bool
		expectedCalls int
	}{
		{
			description:   "first attempt succeeds",
			failures:      0,
			expectedCalls: 1,
		},
		{
			description:   "retry recovers",
			failures:      1,
			expectedCalls: 2,
		},
		{
			description:   "abandoned after retry",
			failures:      2,
			expectError:   true,
			expectedCalls: 2,
		},
	}
	for _, testCase := range testCases {
		delegate := &flakyDispatcher{failures: testCase.failures}
		dispatcher := NewRetrying(delegate, WithRetryDelay(0))
		ref, err := dispatcher.Send(context.Background(), &approval.PendingApproval{TaskID: "task-1"})
		if testCase.expectError {
			assert.ErrorIs(t, err, ErrDeliveryFailed, testCase.description)
		} else {
			require.NoError(t, err, testCase.description)
			assert.Equal(t, "ref-1", ref, testCase.description)
		}
		assert.Equal(t, testCase.expectedCalls, delegate.sendCalls, testCase.description)
	}
}

func TestRetryingNotifyDecision(t *testing.T) {
	delegate := &flakyDispatcher{failures: 1}
	dispatcher := NewRetrying(delegate, WithRetryDelay(time.Millisecond))
	err := dispatcher.NotifyDecision(context.Background(), &approval.DecisionRecord{TaskID: "task-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, delegate.noteCalls)
}

func TestRetryingHonoursContext(t *testing.T) {
	delegate := &flakyDispatcher{failures: 2}
	dispatcher := NewRetrying(delegate, WithRetryDelay(time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := dispatcher.Send(ctx, &approval.PendingApproval{TaskID: "task-1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, delegate.sendCalls)
}

func TestNoop(t *testing.T) {
	ref, err := Noop{}.Send(context.Background(), &approval.PendingApproval{TaskID: "task-1"})
	require.NoError(t, err)
	assert.Empty(t, ref)
	assert.NoError(t, Noop{}.NotifyDecision(context.Background(), &approval.DecisionRecord{TaskID: "task-1"}))
}
