package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/janitor/internal/config"
	"github.com/ziadkadry99/janitor/internal/identity"
	"github.com/ziadkadry99/janitor/internal/jira"
	"github.com/ziadkadry99/janitor/internal/mapping"
	"github.com/ziadkadry99/janitor/internal/mutation"
	"github.com/ziadkadry99/janitor/internal/progress"
	"github.com/ziadkadry99/janitor/internal/workflow"
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Move Jira issues and group memberships to new accounts",
	Long: `Reads a CSV of source and destination email addresses and, within one Jira
Cloud tenant, reassigns the source's issues, hands over the issues they
reported, and adds the destination to the source's groups.

Tenant, mode and input file are prompted for when they are not given as flags
and the terminal is interactive.`,
	RunE: runTransfer,
}

func init() {
	transferCmd.Flags().String("tenant", "", "name of the configured Jira tenant")
	transferCmd.Flags().String("mode", "", "what to transfer: all, issues, assigned, reported, groups")
	transferCmd.Flags().StringP("input", "i", "", "CSV file with source,destination email rows")
	transferCmd.Flags().Bool("dry-run", false, "resolve and enumerate without changing anything")
	transferCmd.Flags().Int("concurrency", 0, "issues updated in parallel (overrides config)")
	rootCmd.AddCommand(transferCmd)
}

func runTransfer(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	cfg, err := loadConfig(dryRun, concurrency)
	if err != nil {
		return err
	}
	if err := cfg.ValidateTransfer(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	creds, err := loadCredentials()
	if err != nil {
		return err
	}
	if err := creds.RequireJira(); err != nil {
		return err
	}

	input, err := resolveInput(cmd)
	if err != nil {
		return err
	}
	pairs, err := mapping.ReadFile(input)
	if err != nil {
		return err
	}
	tenant, err := resolveTenant(cmd, cfg)
	if err != nil {
		return err
	}
	mode, err := resolveMode(cmd, cfg)
	if err != nil {
		return err
	}

	logs, err := openLogs(cfg)
	if err != nil {
		return err
	}
	defer logs.Close()
	logs.Logger.Info("Script Started!", "command", "transfer", "tenant", tenant.Name, "mode", mode, "pairs", len(pairs), "dry_run", cfg.DryRun)

	client := jira.New(jira.Options{
		BaseURL:           tenant.BaseURL,
		Email:             creds.JiraEmail,
		APIToken:          creds.JiraAPIToken,
		RequestsPerMinute: cfg.Jira.RequestsPerMinute,
		PageSize:          cfg.Jira.PageSize,
		MaxPages:          cfg.Jira.MaxPages,
	}, newExecutor(cfg, logs))
	resolver := identity.NewResolver(tenant.Name, client, logs.Logger)
	applier := mutation.NewApplier(nil, client, logs.Logger)

	run := workflow.NewTransfer(client, resolver, applier, workflow.TransferOptions{
		Tenant:      tenant.Name,
		Mode:        mode,
		Concurrency: cfg.Concurrency,
		DryRun:      cfg.DryRun,
	}, logs, progress.NewReporter(), os.Stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Println("Running...")
	summary, err := run.Run(ctx, pairs)
	if err != nil {
		return fmt.Errorf("transfer interrupted: %w", err)
	}
	return finish("Transfer", summary, cfg.FailThreshold)
}

func resolveInput(cmd *cobra.Command) (string, error) {
	input, _ := cmd.Flags().GetString("input")
	if input != "" {
		return input, nil
	}
	if !interactive() {
		return "", errors.New("--input is required when not running interactively")
	}
	return config.PromptInputPath()
}

func resolveTenant(cmd *cobra.Command, cfg *config.Config) (config.JiraTenant, error) {
	name, _ := cmd.Flags().GetString("tenant")
	if name == "" {
		switch {
		case len(cfg.Jira.Tenants) == 1:
			name = cfg.Jira.Tenants[0].Name
		case interactive():
			selected, err := config.PromptTenant(cfg.Jira.TenantNames())
			if err != nil {
				return config.JiraTenant{}, err
			}
			name = selected
		default:
			return config.JiraTenant{}, errors.New("--tenant is required when several tenants are configured")
		}
	}
	tenant, ok := cfg.Jira.Tenant(name)
	if !ok {
		return config.JiraTenant{}, fmt.Errorf("unknown tenant %q: configured tenants are %v", name, cfg.Jira.TenantNames())
	}
	return tenant, nil
}

func resolveMode(cmd *cobra.Command, cfg *config.Config) (config.TransferMode, error) {
	raw, _ := cmd.Flags().GetString("mode")
	return chooseMode(raw, cfg.Jira.Mode, interactive(), config.PromptMode)
}

// chooseMode prefers the flag. Otherwise the prompt opens on the configured
// mode, and without a terminal the configured mode is used as is.
func chooseMode(flag string, configured config.TransferMode, tty bool, prompt func(config.TransferMode) (config.TransferMode, error)) (config.TransferMode, error) {
	if configured == "" {
		configured = config.ModeAll
	}
	switch {
	case flag != "":
		return config.ParseMode(flag)
	case tty:
		return prompt(configured)
	default:
		return configured, nil
	}
}
