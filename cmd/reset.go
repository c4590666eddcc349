package cmd

import (
	"fmt"
	"time"

	"github.com/example/verbbot/internal/database"
	"github.com/example/verbbot/internal/flow"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a user's daily progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		if userID == 0 {
			return fmt.Errorf("--user is required")
		}
		tensesOnly, _ := cmd.Flags().GetBool("tenses-only")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := database.Open(cfg.DBType, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		if tensesOnly {
			day := time.Now().In(cfg.Location).Format(flow.DayLayout)
			if err := store.ResetSentTenses(cmd.Context(), userID, day); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent tenses of user %d for %s cleared\n", userID, day)
			return nil
		}

		if err := store.ResetDailyProgress(cmd.Context(), userID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress of user %d reset\n", userID)
		return nil
	},
}

func init() {
	resetCmd.Flags().Int64("user", 0, "Telegram user id")
	resetCmd.Flags().Bool("tenses-only", false, "Only clear today's sent tenses, keep the verb")
}
