package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/janitor/internal/config"
)

var (
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "janitor",
	Short: "Housekeeping for Slack Enterprise Grid and Jira Cloud",
	Long: `Janitor archives Slack conversations that have been inactive for longer
than a threshold, and moves Jira issues and group memberships from departing
accounts to the accounts that inherit them.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file holding the API tokens")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror the run log to stderr")
}
