package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use a double
// underscore: JANITOR_SLACK__PAGE_SIZE -> slack.page_size.
const EnvPrefix = "JANITOR_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (JANITOR_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// ParseMode validates a transfer mode string against the fixed enum.
func ParseMode(s string) (TransferMode, error) {
	m := TransferMode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validModes[m]; !ok {
		return "", fmt.Errorf("invalid mode %q: must be one of all, issues, assigned, reported, groups", s)
	}
	return m, nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.LogDir == "" {
		return fmt.Errorf("log_dir is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.FailThreshold < 0 {
		return fmt.Errorf("fail_threshold must be non-negative")
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.TimeoutDelaySeconds < 0 {
		return fmt.Errorf("retry.timeout_delay_seconds must be non-negative")
	}
	if c.Retry.DefaultRetryAfterSeconds < 0 {
		return fmt.Errorf("retry.default_retry_after_seconds must be non-negative")
	}

	if c.Slack.InactiveDays < 1 {
		return fmt.Errorf("slack.inactive_days must be at least 1")
	}
	if c.Slack.PageSize < 1 || c.Slack.PageSize > 1000 {
		return fmt.Errorf("slack.page_size must be between 1 and 1000")
	}
	if c.Slack.RequestsPerMinute < 0 {
		return fmt.Errorf("slack.requests_per_minute must be non-negative")
	}
	for _, pattern := range c.Slack.ExcludeChannels {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid slack.exclude_channels pattern %q", pattern)
		}
	}

	if c.Jira.PageSize < 1 || c.Jira.PageSize > 100 {
		return fmt.Errorf("jira.page_size must be between 1 and 100")
	}
	if c.Jira.MaxPages < 1 {
		return fmt.Errorf("jira.max_pages must be at least 1")
	}
	if c.Jira.RequestsPerMinute < 0 {
		return fmt.Errorf("jira.requests_per_minute must be non-negative")
	}
	if c.Jira.Mode != "" {
		if _, err := ParseMode(string(c.Jira.Mode)); err != nil {
			return fmt.Errorf("jira.mode: %w", err)
		}
	}
	seen := make(map[string]bool, len(c.Jira.Tenants))
	for i, t := range c.Jira.Tenants {
		if t.Name == "" {
			return fmt.Errorf("jira.tenants[%d]: name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("jira.tenants[%d]: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true
		if err := validateBaseURL(t.BaseURL); err != nil {
			return fmt.Errorf("jira.tenants[%d]: %w", i, err)
		}
	}

	return nil
}

// ValidateArchive checks the settings the archive command depends on.
func (c *Config) ValidateArchive() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := validateBaseURL(c.Slack.BaseURL); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	if len(c.Slack.Teams) == 0 {
		return fmt.Errorf("slack.teams must list at least one enterprise or team id")
	}
	for i, team := range c.Slack.Teams {
		if strings.TrimSpace(team) == "" {
			return fmt.Errorf("slack.teams[%d] is empty", i)
		}
	}
	return nil
}

// ValidateTransfer checks the settings the transfer command depends on.
func (c *Config) ValidateTransfer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Jira.Tenants) == 0 {
		return fmt.Errorf("jira.tenants must list at least one tenant")
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url %q: host is required", raw)
	}
	return nil
}
