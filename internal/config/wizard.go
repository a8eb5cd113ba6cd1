package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultConfigPath is where the wizard saves its result.
const DefaultConfigPath = ".janitor.yml"

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to janitor! Let's configure your workspaces.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Slack teams, enterprise first.
	teamsPrompt := promptui.Prompt{
		Label: "Slack enterprise and team ids (comma-separated, enterprise id first)",
	}
	teamsStr, err := teamsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("slack teams: %w", err)
	}
	cfg.Slack.Teams = splitAndTrim(teamsStr)

	// 2. Inactivity threshold.
	daysPrompt := promptui.Prompt{
		Label:    "Archive channels inactive for at least (days)",
		Default:  strconv.Itoa(cfg.Slack.InactiveDays),
		Validate: validatePositiveInt,
	}
	daysStr, err := daysPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("inactive days: %w", err)
	}
	cfg.Slack.InactiveDays, _ = strconv.Atoi(strings.TrimSpace(daysStr))

	// 3. Jira tenants, until a blank name is entered.
	for {
		namePrompt := promptui.Prompt{
			Label: fmt.Sprintf("Jira tenant #%d name (blank to finish)", len(cfg.Jira.Tenants)+1),
		}
		name, err := namePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("jira tenant name: %w", err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			break
		}
		urlPrompt := promptui.Prompt{
			Label:    fmt.Sprintf("Base URL for %s", name),
			Validate: validateBaseURL,
		}
		baseURL, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("jira tenant url: %w", err)
		}
		cfg.Jira.Tenants = append(cfg.Jira.Tenants, JiraTenant{Name: name, BaseURL: strings.TrimSpace(baseURL)})
	}

	// 4. Default transfer mode.
	mode, err := PromptMode(cfg.Jira.Mode)
	if err != nil {
		return nil, err
	}
	cfg.Jira.Mode = mode

	// 5. Log directory.
	logPrompt := promptui.Prompt{
		Label:   "Log directory",
		Default: cfg.LogDir,
	}
	cfg.LogDir, err = logPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, envVar := range []string{EnvSlackDiscoveryToken, EnvSlackToken, EnvJiraEmail, EnvJiraAPIToken} {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: set %s in your environment or in %s before running janitor.", envVar, DefaultEnvFile)
		}
	}
	fmt.Println()

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// PromptTenant asks the operator to pick one of the configured Jira tenants.
func PromptTenant(names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("no jira tenants configured")
	}
	sel := promptui.Select{
		Label: "Select the Jira Cloud tenant in which to update users",
		Items: names,
	}
	_, name, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("tenant selection: %w", err)
	}
	return name, nil
}

// PromptMode asks the operator which artifacts to transfer. The cursor starts
// on current.
func PromptMode(current TransferMode) (TransferMode, error) {
	items := make([]string, len(Modes))
	for i, m := range Modes {
		items[i] = fmt.Sprintf("%-9s %s", m, ModeLabel(m))
	}
	sel := promptui.Select{
		Label:     "Select what to transfer",
		Items:     items,
		CursorPos: ModeIndex(current),
	}
	idx, _, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("mode selection: %w", err)
	}
	return Modes[idx], nil
}

// PromptInputPath asks for the identity mapping CSV and keeps asking until an
// existing regular file is entered.
func PromptInputPath() (string, error) {
	p := promptui.Prompt{
		Label: "CSV file with source and destination email addresses",
		Validate: func(s string) error {
			info, err := os.Stat(strings.TrimSpace(s))
			if err != nil {
				return errors.New("file does not exist or is in a different directory")
			}
			if info.IsDir() {
				return errors.New("path is a directory")
			}
			return nil
		},
	}
	path, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("input file: %w", err)
	}
	return strings.TrimSpace(path), nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a positive whole number")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
