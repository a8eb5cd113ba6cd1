package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is where the tokens are looked up when --env-file is not set.
const DefaultEnvFile = "Tokens/.env"

// Environment variables holding the API credentials.
const (
	EnvSlackDiscoveryToken = "SLACK_DISCOVERY_TOKEN"
	EnvSlackToken          = "SLACK_TOKEN"
	EnvJiraEmail           = "JIRA_EMAIL"
	EnvJiraAPIToken        = "JIRA_API_TOKEN"
)

// Credentials are loaded once at startup and never modified afterwards.
type Credentials struct {
	SlackDiscoveryToken string
	SlackToken          string
	JiraEmail           string
	JiraAPIToken        string
}

// LoadCredentials loads the dotenv file at path, if present, and reads the
// credentials from the environment. Variables already set in the process
// environment win over the file.
func LoadCredentials(path string) (Credentials, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Credentials{}, fmt.Errorf("loading env file %s: %w", path, err)
		}
	}
	return Credentials{
		SlackDiscoveryToken: strings.TrimSpace(os.Getenv(EnvSlackDiscoveryToken)),
		SlackToken:          strings.TrimSpace(os.Getenv(EnvSlackToken)),
		JiraEmail:           strings.TrimSpace(os.Getenv(EnvJiraEmail)),
		JiraAPIToken:        strings.TrimSpace(os.Getenv(EnvJiraAPIToken)),
	}, nil
}

// RequireSlack reports a missing Slack token.
func (c Credentials) RequireSlack() error {
	if c.SlackDiscoveryToken == "" {
		return fmt.Errorf("%s environment variable is required", EnvSlackDiscoveryToken)
	}
	if c.SlackToken == "" {
		return fmt.Errorf("%s environment variable is required", EnvSlackToken)
	}
	return nil
}

// RequireJira reports a missing Jira credential.
func (c Credentials) RequireJira() error {
	if c.JiraEmail == "" {
		return fmt.Errorf("%s environment variable is required", EnvJiraEmail)
	}
	if c.JiraAPIToken == "" {
		return fmt.Errorf("%s environment variable is required", EnvJiraAPIToken)
	}
	return nil
}
