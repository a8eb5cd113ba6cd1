package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/janitor/internal/activity"
	"github.com/ziadkadry99/janitor/internal/mutation"
	"github.com/ziadkadry99/janitor/internal/progress"
	"github.com/ziadkadry99/janitor/internal/slack"
	"github.com/ziadkadry99/janitor/internal/workflow"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive Slack conversations that have been inactive for too long",
	Long: `Walks every configured team, enterprise first, evaluates each private and
public conversation against the inactivity threshold, and archives the stale
ones.`,
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().Bool("dry-run", false, "evaluate and log without archiving")
	archiveCmd.Flags().Int("concurrency", 0, "conversations evaluated in parallel (overrides config)")
	archiveCmd.Flags().Int("inactive-days", 0, "inactivity threshold in days (overrides config)")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	inactiveDays, _ := cmd.Flags().GetInt("inactive-days")

	cfg, err := loadConfig(dryRun, concurrency)
	if err != nil {
		return err
	}
	if inactiveDays > 0 {
		cfg.Slack.InactiveDays = inactiveDays
	}
	if err := cfg.ValidateArchive(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	creds, err := loadCredentials()
	if err != nil {
		return err
	}
	if err := creds.RequireSlack(); err != nil {
		return err
	}

	logs, err := openLogs(cfg)
	if err != nil {
		return err
	}
	defer logs.Close()
	logs.Logger.Info("Script Started!", "command", "archive", "teams", cfg.Slack.Teams, "dry_run", cfg.DryRun)

	client := slack.New(slack.Options{
		BaseURL:           cfg.Slack.BaseURL,
		DiscoveryToken:    creds.SlackDiscoveryToken,
		Token:             creds.SlackToken,
		RequestsPerMinute: cfg.Slack.RequestsPerMinute,
		PageSize:          cfg.Slack.PageSize,
	}, newExecutor(cfg, logs))
	evaluator := activity.NewEvaluator(client, cfg.Slack.InactiveDays, logs.Logger)
	applier := mutation.NewApplier(client, nil, logs.Logger)

	run := workflow.NewArchival(client, evaluator, applier, workflow.ArchivalOptions{
		Teams:       cfg.Slack.Teams,
		Exclude:     cfg.Slack.ExcludeChannels,
		Concurrency: cfg.Concurrency,
		DryRun:      cfg.DryRun,
	}, logs, progress.NewReporter(), os.Stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	summary, err := run.Run(ctx)
	if err != nil {
		return fmt.Errorf("archival interrupted: %w", err)
	}
	return finish("Archival", summary, cfg.FailThreshold)
}
