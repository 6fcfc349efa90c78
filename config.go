package slate

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	slacknotifier "github.com/slateops/slate/service/notifier/slack"
)

// Config is a serialisable representation of the pipeline configuration. It
// can be populated from YAML, JSON or environment variables; the zero value
// runs fully in-memory on the default address.
type Config struct {
	HTTP     HTTPConfig            `json:"http" yaml:"http" mapstructure:"http"`
	Approval ApprovalConfig        `json:"approval" yaml:"approval" mapstructure:"approval"`
	Ledger   LedgerConfig          `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Executor ExecutorConfig        `json:"executor" yaml:"executor" mapstructure:"executor"`
	Slack    *slacknotifier.Config `json:"slack,omitempty" yaml:"slack,omitempty" mapstructure:"slack"`
}

// HTTPConfig configures the gateway listener.
type HTTPConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

// ApprovalConfig configures the pending approval slot.
type ApprovalConfig struct {
	// TTL is how long a published recommendation stays decidable.
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// NotifyTimeout bounds each asynchronous notification attempt.
	NotifyTimeout time.Duration `json:"notifyTimeout" yaml:"notifyTimeout" mapstructure:"notifyTimeout"`

	// StateURL, when set, persists the pending slot so it survives a
	// restart; any afs scheme works, e.g. "file:///var/lib/slate/pending".
	StateURL string `json:"stateURL" yaml:"stateURL" mapstructure:"stateURL"`
}

// UnmarshalYAML accepts duration strings such as "2h" or "30m".
func (c *HTTPConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Addr            string `yaml:"addr"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Addr != "" {
		c.Addr = raw.Addr
	}
	return assignDuration(&c.ShutdownTimeout, "http.shutdownTimeout", raw.ShutdownTimeout)
}

// UnmarshalYAML accepts duration strings such as "2h" or "30m".
func (c *ApprovalConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		TTL           string `yaml:"ttl"`
		NotifyTimeout string `yaml:"notifyTimeout"`
		StateURL      string `yaml:"stateURL"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.StateURL != "" {
		c.StateURL = raw.StateURL
	}
	if err := assignDuration(&c.TTL, "approval.ttl", raw.TTL); err != nil {
		return err
	}
	return assignDuration(&c.NotifyTimeout, "approval.notifyTimeout", raw.NotifyTimeout)
}

func assignDuration(target *time.Duration, name, value string) error {
	if value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*target = parsed
	return nil
}

// LedgerConfig configures the decision ledger backend.
type LedgerConfig struct {
	// Backend selects "memory" or "fs".
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// BaseURL is the fs backend location, e.g. "file:///var/lib/slate/decisions".
	BaseURL string `json:"baseURL" yaml:"baseURL" mapstructure:"baseURL"`
}

// ExecutorConfig configures the downstream execution workers.
type ExecutorConfig struct {
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// QueueURL, when set, uses a filesystem-backed execution queue so
	// approved tasks survive a restart. Empty keeps the in-memory queue.
	QueueURL string `json:"queueURL" yaml:"queueURL" mapstructure:"queueURL"`

	// MaxRetries bounds redelivery of failed execution tasks.
	MaxRetries int `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
}

const (
	// BackendMemory keeps state in process memory.
	BackendMemory = "memory"
	// BackendFs persists state through afs.
	BackendFs = "fs"
)

// DefaultConfig returns a config with the same defaults the constructors
// apply on their own.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Approval: ApprovalConfig{
			TTL:           24 * time.Hour,
			NotifyTimeout: 30 * time.Second,
		},
		Ledger: LedgerConfig{
			Backend: BackendMemory,
		},
		Executor: ExecutorConfig{
			Workers:    2,
			MaxRetries: 3,
		},
	}
}

// LoadConfig reads a YAML configuration from any afs-supported URL and
// merges it over the defaults.
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr cannot be empty")
	}
	if c.Approval.TTL < 0 {
		return fmt.Errorf("approval.ttl cannot be negative")
	}
	if c.Executor.Workers <= 0 {
		return fmt.Errorf("executor.workers must be > 0")
	}
	switch c.Ledger.Backend {
	case "", BackendMemory:
	case BackendFs:
		if c.Ledger.BaseURL == "" {
			return fmt.Errorf("ledger.baseURL is required for the fs backend")
		}
	default:
		return fmt.Errorf("unknown ledger backend: %q", c.Ledger.Backend)
	}
	return nil
}
