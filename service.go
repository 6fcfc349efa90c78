package slate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/viant/afs"

	"github.com/slateops/slate/gateway"
	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/approval/coordinator"
	"github.com/slateops/slate/service/approval/ledger"
	lfs "github.com/slateops/slate/service/approval/ledger/fs"
	"github.com/slateops/slate/service/dao/store"
	"github.com/slateops/slate/service/event"
	"github.com/slateops/slate/service/executor"
	"github.com/slateops/slate/service/messaging"
	qfs "github.com/slateops/slate/service/messaging/fs"
	qmemory "github.com/slateops/slate/service/messaging/memory"
	"github.com/slateops/slate/service/notifier"
	slacknotifier "github.com/slateops/slate/service/notifier/slack"
)

// Service assembles the whole approval pipeline: coordinator, execution
// workers, optional Slack channel and the HTTP gateway.
type Service struct {
	config     *Config
	fs         afs.Service
	runtime    *Runtime
	approval   approval.Service
	executor   *executor.Service
	events     *event.Listener
	dispatcher approval.Dispatcher

	connectors       []connectorBinding
	defaultConnector executor.Connector
}

type connectorBinding struct {
	connector executor.Connector
	actions   []string
}

// New builds the service from configuration and options.
func New(ctx context.Context, options ...Option) (*Service, error) {
	s := &Service{}
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context) error {
	execQueue, err := s.buildExecutionQueue()
	if err != nil {
		return err
	}
	decisionLedger, err := s.buildLedger(ctx)
	if err != nil {
		return err
	}

	var signingSecret string
	if s.config.Slack.Enabled() {
		token, secret, err := s.config.Slack.Resolve(ctx)
		if err != nil {
			return err
		}
		signingSecret = secret
		if s.dispatcher == nil {
			s.dispatcher = notifier.NewRetrying(slacknotifier.New(token, s.config.Slack.Channel))
		}
	}

	coordinatorOptions := []coordinator.Option{
		coordinator.WithExecutionQueue(execQueue),
		coordinator.WithTTL(s.config.Approval.TTL),
		coordinator.WithNotifyTimeout(s.config.Approval.NotifyTimeout),
	}
	if decisionLedger != nil {
		coordinatorOptions = append(coordinatorOptions, coordinator.WithLedger(decisionLedger))
	}
	if s.dispatcher != nil {
		coordinatorOptions = append(coordinatorOptions, coordinator.WithDispatcher(s.dispatcher))
	}
	if s.config.Approval.StateURL != "" {
		pendingStore := store.NewFsStore[approval.PendingApproval](s.fs, s.config.Approval.StateURL,
			func(p *approval.PendingApproval) string { return p.TaskID })
		coordinatorOptions = append(coordinatorOptions, coordinator.WithPendingStore(pendingStore))
	}
	eventQueue := qmemory.NewQueue[approval.Event](qmemory.DefaultConfig())
	coordinatorOptions = append(coordinatorOptions, coordinator.WithEventQueue(eventQueue))
	s.approval = coordinator.New(coordinatorOptions...)
	s.events = event.NewListener(eventQueue)
	s.events.On("", event.LogHandler)
	if s.config.Approval.StateURL != "" {
		if restorer, ok := s.approval.(coordinator.Restorer); ok {
			if err := restorer.Restore(ctx); err != nil {
				return fmt.Errorf("failed to restore pending approval state: %w", err)
			}
		}
	}

	executorOptions := []executor.Option{
		executor.WithConfig(executor.Config{WorkerCount: s.config.Executor.Workers}),
	}
	for _, binding := range s.connectors {
		executorOptions = append(executorOptions, executor.WithConnector(binding.connector, binding.actions...))
	}
	if s.defaultConnector != nil {
		executorOptions = append(executorOptions, executor.WithDefaultConnector(s.defaultConnector))
	}
	if s.executor, err = executor.New(execQueue, executorOptions...); err != nil {
		return err
	}

	gatewayOptions := []gateway.Option{}
	if s.config.Slack.Enabled() {
		gatewayOptions = append(gatewayOptions,
			gateway.WithSlackHandler(slacknotifier.NewHandler(s.approval, signingSecret)))
	}
	router := gateway.New(s.approval, gatewayOptions...).Router()

	s.runtime = &Runtime{
		executor: s.executor,
		events:   s.events,
		server: &http.Server{
			Addr:    s.config.HTTP.Addr,
			Handler: router,
		},
		shutdownTimeout: s.config.HTTP.ShutdownTimeout,
	}
	return nil
}

func (s *Service) buildExecutionQueue() (messaging.Queue[executor.Task], error) {
	if s.config.Executor.QueueURL == "" {
		config := qmemory.DefaultConfig()
		if s.config.Executor.MaxRetries > 0 {
			config.MaxRetries = s.config.Executor.MaxRetries
		}
		return qmemory.NewQueue[executor.Task](config), nil
	}
	config := qfs.DefaultConfig()
	config.BaseURL = s.config.Executor.QueueURL
	if s.config.Executor.MaxRetries > 0 {
		config.MaxRetries = s.config.Executor.MaxRetries
	}
	queue, err := qfs.NewQueue[executor.Task](s.fs, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open execution queue: %w", err)
	}
	return queue, nil
}

func (s *Service) buildLedger(ctx context.Context) (ledger.Ledger, error) {
	if s.config.Ledger.Backend != BackendFs {
		return nil, nil
	}
	result, err := lfs.New(ctx, s.fs, s.config.Ledger.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision ledger: %w", err)
	}
	return result, nil
}

// Approval exposes the approval pipeline service.
func (s *Service) Approval() approval.Service { return s.approval }

// Events exposes the approval event listener; register handlers before the
// runtime starts.
func (s *Service) Events() *event.Listener { return s.events }

// Runtime exposes the runnable parts of the service.
func (s *Service) Runtime() *Runtime { return s.runtime }
