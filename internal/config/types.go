package config

// TransferMode selects which ownership artifacts the transfer command moves.
type TransferMode string

const (
	ModeAll      TransferMode = "all"
	ModeIssues   TransferMode = "issues"
	ModeAssigned TransferMode = "assigned"
	ModeReported TransferMode = "reported"
	ModeGroups   TransferMode = "groups"
)

// Config is the top-level janitor configuration, corresponding to .janitor.yml.
type Config struct {
	LogDir        string      `yaml:"log_dir" koanf:"log_dir"`
	Concurrency   int         `yaml:"concurrency" koanf:"concurrency"`
	DryRun        bool        `yaml:"dry_run" koanf:"dry_run"`
	FailThreshold int         `yaml:"fail_threshold" koanf:"fail_threshold"`
	Retry         RetryConfig `yaml:"retry" koanf:"retry"`
	Slack         SlackConfig `yaml:"slack" koanf:"slack"`
	Jira          JiraConfig  `yaml:"jira" koanf:"jira"`
}

// RetryConfig holds the bounded-retry policy shared by every API client.
type RetryConfig struct {
	MaxAttempts              int `yaml:"max_attempts" koanf:"max_attempts"`
	TimeoutDelaySeconds      int `yaml:"timeout_delay_seconds" koanf:"timeout_delay_seconds"`
	DefaultRetryAfterSeconds int `yaml:"default_retry_after_seconds" koanf:"default_retry_after_seconds"`
}

// SlackConfig holds settings for the channel archival workflow.
type SlackConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	// Teams is evaluated in order. The enterprise id goes first so that
	// cross-shared channels are seen under the enterprise scope.
	Teams             []string `yaml:"teams" koanf:"teams"`
	InactiveDays      int      `yaml:"inactive_days" koanf:"inactive_days"`
	PageSize          int      `yaml:"page_size" koanf:"page_size"`
	ExcludeChannels   []string `yaml:"exclude_channels" koanf:"exclude_channels"`
	RequestsPerMinute int      `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// JiraTenant is a single Jira Cloud site.
type JiraTenant struct {
	Name    string `yaml:"name" koanf:"name"`
	BaseURL string `yaml:"base_url" koanf:"base_url"`
}

// JiraConfig holds settings for the ownership transfer workflow.
type JiraConfig struct {
	Tenants           []JiraTenant `yaml:"tenants" koanf:"tenants"`
	PageSize          int          `yaml:"page_size" koanf:"page_size"`
	MaxPages          int          `yaml:"max_pages" koanf:"max_pages"`
	Mode              TransferMode `yaml:"mode" koanf:"mode"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// Tenant returns the configured tenant with the given name.
func (j JiraConfig) Tenant(name string) (JiraTenant, bool) {
	for _, t := range j.Tenants {
		if t.Name == name {
			return t, true
		}
	}
	return JiraTenant{}, false
}

// TenantNames lists the configured tenant names in order.
func (j JiraConfig) TenantNames() []string {
	names := make([]string, 0, len(j.Tenants))
	for _, t := range j.Tenants {
		names = append(names, t.Name)
	}
	return names
}
