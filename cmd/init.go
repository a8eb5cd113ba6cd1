package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/janitor/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a janitor configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that asks for the Slack teams and Jira tenants to manage and writes them to .janitor.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
