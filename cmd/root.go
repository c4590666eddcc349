package cmd

import (
	"github.com/example/verbbot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "verbbot",
	Short: "Spanish verb of the day Telegram bot",
	Long:  "verbbot sends a Spanish verb every day, quizzes the user on it and drips its conjugations hour by hour.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().String("verbs", "", "Verb table, .csv or .xlsx (overrides VERBS_FILE)")

	rootCmd.AddCommand(verbsCmd)
	rootCmd.AddCommand(resetCmd)
}

// loadConfig reads the environment and applies command line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DatabaseURL = p
	}
	if p, _ := cmd.Flags().GetString("verbs"); p != "" {
		cfg.VerbsFile = p
	}
	return cfg, nil
}
