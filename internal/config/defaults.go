package config

// DefaultSlackBaseURL is the Slack Web API root.
const DefaultSlackBaseURL = "https://slack.com/api"

// validModes maps each transfer mode to the label shown by the wizard.
var validModes = map[TransferMode]string{
	ModeAll:      "transfer issues and group memberships",
	ModeIssues:   "transfer assigned and reported issues",
	ModeAssigned: "transfer assigned issues only",
	ModeReported: "transfer reported issues only",
	ModeGroups:   "transfer group memberships only",
}

// Modes lists the transfer modes in menu order.
var Modes = []TransferMode{ModeAll, ModeIssues, ModeAssigned, ModeReported, ModeGroups}

// ModeIndex returns the menu position of m, or 0 for an unknown mode.
func ModeIndex(m TransferMode) int {
	for i, mode := range Modes {
		if mode == m {
			return i
		}
	}
	return 0
}

// ModeLabel returns the human-readable description of a mode.
func ModeLabel(m TransferMode) string {
	return validModes[m]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogDir:      "logs",
		Concurrency: 1,
		Retry: RetryConfig{
			MaxAttempts:              3,
			TimeoutDelaySeconds:      5,
			DefaultRetryAfterSeconds: 1,
		},
		Slack: SlackConfig{
			BaseURL:      DefaultSlackBaseURL,
			InactiveDays: 180,
			PageSize:     1000,
		},
		Jira: JiraConfig{
			PageSize: 100,
			MaxPages: 500,
			Mode:     ModeAll,
		},
	}
}
