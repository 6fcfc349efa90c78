package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/scy"
)

// Config holds Slack channel settings. Token and signing secret may be
// supplied inline or as scy resource URLs pointing at encrypted secrets.
type Config struct {
	// Channel is the Slack channel ID approval prompts are posted to.
	Channel string `yaml:"channel" json:"channel" mapstructure:"channel"`

	// BotToken is the xoxb token used for posting.
	BotToken string `yaml:"botToken" json:"botToken" mapstructure:"botToken"`

	// BotTokenURL locates an encrypted bot token, e.g. "file:///opt/secrets/slack.enc".
	BotTokenURL string `yaml:"botTokenURL" json:"botTokenURL" mapstructure:"botTokenURL"`

	// SigningSecret verifies interaction callbacks.
	SigningSecret string `yaml:"signingSecret" json:"signingSecret" mapstructure:"signingSecret"`

	// SigningSecretURL locates an encrypted signing secret.
	SigningSecretURL string `yaml:"signingSecretURL" json:"signingSecretURL" mapstructure:"signingSecretURL"`

	// Key optionally names the scy encryption key, e.g. "blowfish://default".
	Key string `yaml:"key" json:"key" mapstructure:"key"`
}

// Enabled reports whether the configuration carries enough to post.
func (c *Config) Enabled() bool {
	if c == nil {
		return false
	}
	return c.Channel != "" && (c.BotToken != "" || c.BotTokenURL != "")
}

// Resolve loads any URL-referenced secrets and returns the effective token
// and signing secret.
func (c *Config) Resolve(ctx context.Context) (token, signingSecret string, err error) {
	token = strings.TrimSpace(c.BotToken)
	signingSecret = strings.TrimSpace(c.SigningSecret)
	if token == "" && c.BotTokenURL != "" {
		if token, err = loadSecret(ctx, c.BotTokenURL, c.Key); err != nil {
			return "", "", fmt.Errorf("failed to load slack bot token: %w", err)
		}
	}
	if signingSecret == "" && c.SigningSecretURL != "" {
		if signingSecret, err = loadSecret(ctx, c.SigningSecretURL, c.Key); err != nil {
			return "", "", fmt.Errorf("failed to load slack signing secret: %w", err)
		}
	}
	if token == "" {
		return "", "", fmt.Errorf("slack bot token is required")
	}
	return token, signingSecret, nil
}

func loadSecret(ctx context.Context, sourceURL, key string) (string, error) {
	resource := scy.NewResource(nil, sourceURL, key)
	secret, err := scy.New().Load(ctx, resource)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(secret.String()), nil
}
