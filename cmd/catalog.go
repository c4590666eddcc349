package cmd

import (
	"fmt"

	"github.com/example/verbbot/internal/config"
	"github.com/example/verbbot/internal/quiz"
	"github.com/example/verbbot/internal/verbs"
)

// loadCatalog reads the configured verb table and refuses one without verbs
func loadCatalog(cfg *config.Config) (*verbs.Catalog, error) {
	catalog, err := verbs.Load(verbs.LoadConfig{FilePath: cfg.VerbsFile, SheetName: cfg.VerbsSheet})
	if err != nil {
		return nil, err
	}
	if catalog.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", cfg.VerbsFile, verbs.ErrEmptyCatalog)
	}
	return catalog, nil
}

// oversizedAnswers lists quiz answers too long for Telegram button data.
// Quizzes about these verbs are skipped at delivery.
func oversizedAnswers(catalog *verbs.Catalog) []string {
	var out []string
	for _, inf := range catalog.Infinitives() {
		verb, _ := catalog.ByInfinitive(inf)
		for _, kind := range []quiz.Kind{quiz.Translation, quiz.Infinitive} {
			if value := kind.Field().Value(verb); !quiz.Fits(kind, value) {
				out = append(out, fmt.Sprintf("%s (%s): %q", inf, kind, value))
			}
		}
	}
	return out
}
