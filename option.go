package slate

import (
	"github.com/viant/afs"

	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/executor"
)

// Option customises the service assembly.
type Option func(s *Service)

// WithConfig sets the configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithDispatcher overrides the notification dispatcher; when set, the Slack
// configuration is ignored.
func WithDispatcher(dispatcher approval.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = dispatcher }
}

// WithConnector registers an execution connector for the given actions.
func WithConnector(connector executor.Connector, actions ...string) Option {
	return func(s *Service) {
		s.connectors = append(s.connectors, connectorBinding{connector: connector, actions: actions})
	}
}

// WithDefaultConnector sets the connector for actions without a dedicated one.
func WithDefaultConnector(connector executor.Connector) Option {
	return func(s *Service) { s.defaultConnector = connector }
}

// WithFs overrides the afs service backing persistent stores and queues.
func WithFs(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}
