package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Slack.InactiveDays != 180 {
		t.Errorf("expected default inactive_days 180, got %d", cfg.Slack.InactiveDays)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("expected default max_attempts 3, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.TimeoutDelaySeconds != 5 {
		t.Errorf("expected default timeout delay 5, got %d", cfg.Retry.TimeoutDelaySeconds)
	}
	if cfg.Jira.Mode != ModeAll {
		t.Errorf("expected default mode %q, got %q", ModeAll, cfg.Jira.Mode)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("expected default concurrency 1, got %d", cfg.Concurrency)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.janitor.yml")

	original := DefaultConfig()
	original.Slack.Teams = []string{"E123", "T1", "T2"}
	original.Slack.ExcludeChannels = []string{"announce-*"}
	original.Jira.Tenants = []JiraTenant{
		{Name: "eu", BaseURL: "https://eu.atlassian.net"},
		{Name: "us", BaseURL: "https://us.atlassian.net"},
	}
	original.Jira.Mode = ModeGroups
	original.FailThreshold = 7

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded.Slack.Teams) != 3 || loaded.Slack.Teams[0] != "E123" {
		t.Errorf("teams: got %v", loaded.Slack.Teams)
	}
	if len(loaded.Jira.Tenants) != 2 || loaded.Jira.Tenants[1].BaseURL != "https://us.atlassian.net" {
		t.Errorf("tenants: got %+v", loaded.Jira.Tenants)
	}
	if loaded.Jira.Mode != ModeGroups {
		t.Errorf("mode: got %q, want %q", loaded.Jira.Mode, ModeGroups)
	}
	if loaded.FailThreshold != 7 {
		t.Errorf("fail_threshold: got %d, want 7", loaded.FailThreshold)
	}
	if err := loaded.ValidateArchive(); err != nil {
		t.Errorf("loaded config should be valid for archive: %v", err)
	}
	if err := loaded.ValidateTransfer(); err != nil {
		t.Errorf("loaded config should be valid for transfer: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Slack.PageSize != 1000 {
		t.Errorf("expected default page size, got %d", cfg.Slack.PageSize)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("JANITOR_CONCURRENCY", "4")
	t.Setenv("JANITOR_SLACK__INACTIVE_DAYS", "90")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Concurrency != 4 {
		t.Errorf("env override failed: got concurrency %d, want 4", loaded.Concurrency)
	}
	if loaded.Slack.InactiveDays != 90 {
		t.Errorf("nested env override failed: got %d, want 90", loaded.Slack.InactiveDays)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty log dir", func(c *Config) { c.LogDir = "" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"negative fail threshold", func(c *Config) { c.FailThreshold = -1 }},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"zero inactive days", func(c *Config) { c.Slack.InactiveDays = 0 }},
		{"slack page too large", func(c *Config) { c.Slack.PageSize = 5000 }},
		{"jira page too large", func(c *Config) { c.Jira.PageSize = 101 }},
		{"bad exclude pattern", func(c *Config) { c.Slack.ExcludeChannels = []string{"[abc"} }},
		{"unknown mode", func(c *Config) { c.Jira.Mode = "everything" }},
		{"tenant without name", func(c *Config) {
			c.Jira.Tenants = []JiraTenant{{BaseURL: "https://a.atlassian.net"}}
		}},
		{"tenant with bad url", func(c *Config) {
			c.Jira.Tenants = []JiraTenant{{Name: "a", BaseURL: "a.atlassian.net"}}
		}},
		{"duplicate tenants", func(c *Config) {
			c.Jira.Tenants = []JiraTenant{
				{Name: "a", BaseURL: "https://a.atlassian.net"},
				{Name: "a", BaseURL: "https://b.atlassian.net"},
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateArchiveRequiresTeams(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateArchive(); err == nil {
		t.Error("expected error without teams")
	}
	cfg.Slack.Teams = []string{"E1", " "}
	if err := cfg.ValidateArchive(); err == nil {
		t.Error("expected error for blank team id")
	}
}

func TestValidateTransferRequiresTenants(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateTransfer(); err == nil {
		t.Error("expected error without tenants")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    TransferMode
		wantErr bool
	}{
		{"all", ModeAll, false},
		{" Groups ", ModeGroups, false},
		{"issues", ModeIssues, false},
		{"assigned", ModeAssigned, false},
		{"reported", ModeReported, false},
		{"1", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTenantLookup(t *testing.T) {
	j := JiraConfig{Tenants: []JiraTenant{{Name: "eu", BaseURL: "https://eu.atlassian.net"}}}
	if _, ok := j.Tenant("us"); ok {
		t.Error("expected us to be missing")
	}
	tenant, ok := j.Tenant("eu")
	if !ok || tenant.BaseURL != "https://eu.atlassian.net" {
		t.Errorf("unexpected tenant %+v", tenant)
	}
	if names := j.TenantNames(); len(names) != 1 || names[0] != "eu" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestLoadCredentialsFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "SLACK_DISCOVERY_TOKEN=xoxp-disc\nSLACK_TOKEN=xoxp-ws\nJIRA_EMAIL=admin@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, k := range []string{EnvSlackDiscoveryToken, EnvSlackToken, EnvJiraEmail, EnvJiraAPIToken} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	creds, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if err := creds.RequireSlack(); err != nil {
		t.Errorf("slack credentials should be complete: %v", err)
	}
	if creds.SlackDiscoveryToken != "xoxp-disc" {
		t.Errorf("discovery token: got %q", creds.SlackDiscoveryToken)
	}
	if err := creds.RequireJira(); err == nil {
		t.Error("expected missing JIRA_API_TOKEN error")
	}
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	if _, err := LoadCredentials(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should not be an error: %v", err)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" E1 , T1 , T2 ", []string{"E1", "T1", "T2"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}

func TestModeIndex(t *testing.T) {
	if got := ModeIndex(ModeReported); Modes[got] != ModeReported {
		t.Errorf("ModeIndex(reported) = %d", got)
	}
	if got := ModeIndex("bogus"); got != 0 {
		t.Errorf("unknown mode should map to 0, got %d", got)
	}
}
