package cmd

import (
	"fmt"
	"strings"

	"github.com/example/verbbot/internal/flow"
	"github.com/spf13/cobra"
)

var verbsCmd = &cobra.Command{
	Use:   "verbs [infinitive]",
	Short: "Validate the verb table and print its contents",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		catalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			fmt.Fprintf(out, "%d verbs, tenses: %s\n", catalog.Len(), strings.Join(catalog.TenseNames(), ", "))
			for _, answer := range oversizedAnswers(catalog) {
				fmt.Fprintf(out, "warning: answer too long for quiz buttons: %s\n", answer)
			}
			for _, inf := range catalog.Infinitives() {
				fmt.Fprintln(out, inf)
			}
			return nil
		}

		verb, ok := catalog.ByInfinitive(args[0])
		if !ok {
			return fmt.Errorf("verb %q not found", args[0])
		}
		tenses := catalog.TenseNames()
		if tense, _ := cmd.Flags().GetString("tense"); tense != "" {
			if !catalog.HasTense(tense) {
				return fmt.Errorf("unknown tense %q", tense)
			}
			tenses = []string{tense}
		}

		fmt.Fprintf(out, "%s — %s\n", verb.Infinitive, verb.Translation)
		for _, tense := range tenses {
			fmt.Fprintf(out, "\n%s\n", tense)
			for i, form := range catalog.TenseForms(verb, tense) {
				fmt.Fprintf(out, "  %-12s %s\n", flow.Pronouns[i], form)
			}
		}
		return nil
	},
}

func init() {
	verbsCmd.Flags().String("tense", "", "Print a single tense")
}
