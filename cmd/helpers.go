package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ziadkadry99/janitor/internal/api"
	"github.com/ziadkadry99/janitor/internal/config"
	"github.com/ziadkadry99/janitor/internal/logging"
	"github.com/ziadkadry99/janitor/internal/workflow"
)

// loadConfig loads the config and applies the dry-run and concurrency flags.
func loadConfig(dryRun bool, concurrency int) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `janitor init` to create a config file", err)
	}
	if dryRun {
		cfg.DryRun = true
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	return cfg, nil
}

func loadCredentials() (config.Credentials, error) {
	creds, err := config.LoadCredentials(envFile)
	if err != nil {
		return config.Credentials{}, fmt.Errorf("loading credentials: %w", err)
	}
	return creds, nil
}

func openLogs(cfg *config.Config) (*logging.Run, error) {
	logs, err := logging.Open(logging.Options{Dir: cfg.LogDir, Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("opening logs: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Logging to %s (audit: %s)\n", logs.LogPath, logs.AuditPath)
	}
	return logs, nil
}

func newExecutor(cfg *config.Config, logs *logging.Run) *api.Executor {
	return api.NewExecutor(api.Policy{
		MaxAttempts:       cfg.Retry.MaxAttempts,
		TimeoutDelay:      time.Duration(cfg.Retry.TimeoutDelaySeconds) * time.Second,
		DefaultRetryAfter: time.Duration(cfg.Retry.DefaultRetryAfterSeconds) * time.Second,
	}, logs.Logger)
}

// interactive reports whether the operator can answer prompts.
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// finish prints the completion line and applies fail_threshold.
func finish(name string, s workflow.Summary, threshold int) error {
	fmt.Printf("%s completed in %s: %s\n", name, s.Elapsed.Round(time.Millisecond), s)
	if threshold > 0 && s.Failed > threshold {
		return fmt.Errorf("%d failures exceed fail_threshold %d", s.Failed, threshold)
	}
	return nil
}
