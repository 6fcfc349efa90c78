package slate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/slateops/slate/model/recommendation"
	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/executor"
)

type captureConnector struct {
	mu    sync.Mutex
	tasks []*executor.Task
}

func (c *captureConnector) Name() string { return "capture" }

func (c *captureConnector) Execute(_ context.Context, task *executor.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, task)
	return nil
}

func (c *captureConnector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(*Config)
		expectError bool
	}{
		{
			description: "defaults are valid",
			mutate:      func(*Config) {},
		},
		{
			description: "missing http addr",
			mutate:      func(c *Config) { c.HTTP.Addr = "" },
			expectError: true,
		},
		{
			description: "zero workers",
			mutate:      func(c *Config) { c.Executor.Workers = 0 },
			expectError: true,
		},
		{
			description: "fs ledger without baseURL",
			mutate:      func(c *Config) { c.Ledger.Backend = BackendFs },
			expectError: true,
		},
		{
			description: "fs ledger with baseURL",
			mutate: func(c *Config) {
				c.Ledger.Backend = BackendFs
				c.Ledger.BaseURL = "mem://localhost/slate/decisions"
			},
		},
		{
			description: "unknown ledger backend",
			mutate:      func(c *Config) { c.Ledger.Backend = "redis" },
			expectError: true,
		},
	}
	for _, testCase := range testCases {
		config := DefaultConfig()
		testCase.mutate(config)
		err := config.Validate()
		if testCase.expectError {
			assert.Error(t, err, testCase.description)
		} else {
			assert.NoError(t, err, testCase.description)
		}
	}
}

func TestServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	connector := &captureConnector{}
	svc, err := New(ctx, WithDefaultConnector(connector))
	require.NoError(t, err)

	svc.executor.Start(ctx)
	defer svc.executor.Shutdown()

	server := httptest.NewServer(svc.Runtime().Handler())
	defer server.Close()

	rec := recommendation.Recommendation{
		Action:      "restock",
		Quantity:    40,
		ExpectedROI: "12%",
		Confidence:  recommendation.ConfidenceHigh,
		GeneratedAt: time.Now(),
	}
	body, err := json.Marshal(rec)
	require.NoError(t, err)
	response, err := http.Post(server.URL+"/v1/recommendations", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, response.StatusCode)
	var published struct {
		TaskID string `json:"taskId"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&published))
	response.Body.Close()

	decision, err := json.Marshal(map[string]string{"decision": "approved", "decidedBy": "user-A"})
	require.NoError(t, err)
	decideURL := fmt.Sprintf("%s/v1/approvals/%s/decision", server.URL, published.TaskID)
	response, err = http.Post(decideURL, "application/json", bytes.NewReader(decision))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)
	response.Body.Close()

	// approved task flows through the executor to the connector
	assert.Eventually(t, func() bool { return connector.count() == 1 }, time.Second, 10*time.Millisecond)
	connector.mu.Lock()
	defer connector.mu.Unlock()
	assert.Equal(t, published.TaskID, connector.tasks[0].TaskID)
	assert.Equal(t, "restock", connector.tasks[0].Action)
}

func TestServicePersistentState(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	config := DefaultConfig()
	config.Approval.StateURL = "mem://localhost/slate/root/pending"
	config.Ledger.Backend = BackendFs
	config.Ledger.BaseURL = "mem://localhost/slate/root/decisions"
	config.Executor.QueueURL = "mem://localhost/slate/root/queue"

	svc, err := New(ctx, WithConfig(config), WithFs(fs))
	require.NoError(t, err)

	taskID, err := svc.Approval().Publish(ctx, recommendation.Recommendation{
		Action:      "restock",
		Quantity:    10,
		ExpectedROI: "5%",
		Confidence:  recommendation.ConfidenceMedium,
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)

	// a fresh service over the same storage sees the pending slot
	revived, err := New(ctx, WithConfig(config), WithFs(fs))
	require.NoError(t, err)
	pending, err := revived.Approval().CurrentPending(ctx)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, taskID, pending.TaskID)

	// and a decision made there lands in the shared ledger
	_, err = revived.Approval().Decide(ctx, taskID, approval.DecisionRejected, "user-A", approval.ChannelUI)
	require.NoError(t, err)
	history, err := revived.Approval().History(ctx, "")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, approval.DecisionRejected, history[0].Decision)
}
