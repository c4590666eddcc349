package flow

import (
	"fmt"
	"strings"

	"github.com/example/verbbot/internal/quiz"
	"github.com/example/verbbot/pkg/models"
)

// Pronouns in person order
var Pronouns = []string{"yo", "tú", "él/ella", "nosotros", "vosotros", "ellos/ellas"}

const (
	NoticeInvalidQuiz = "Некорректные данные квиза."
	NoticeNotYourQuiz = "Это не твой квиз!"
)

func verbAnnouncement(v models.Verb) string {
	if v.Translation == "" {
		return fmt.Sprintf("📚 Глагол дня:\n\n🇪🇸 %s", v.Infinitive)
	}
	return fmt.Sprintf("📚 Глагол дня:\n\n🇪🇸 %s — 🇷🇺 %s", v.Infinitive, v.Translation)
}

func quizPrompt(q quiz.Question) string {
	if q.Kind == quiz.Infinitive {
		return fmt.Sprintf("🎯 Квиз №2\n\nЗначение: %s\nВыбери правильный инфинитив:", q.Verb.Translation)
	}
	return fmt.Sprintf("🎯 Квиз №1\n\nГлагол: %s\nВыбери верный перевод:", q.Verb.Infinitive)
}

func quizButtons(q quiz.Question) []Button {
	buttons := make([]Button, 0, len(q.Options))
	for _, o := range q.Options {
		buttons = append(buttons, Button{Text: o.Text, Data: o.Payload.Encode()})
	}
	return buttons
}

func tenseBreakdown(tense string, forms []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 %s\n\n", tense)
	for i, form := range forms {
		if i >= len(Pronouns) {
			break
		}
		fmt.Fprintf(&b, "%s — %s\n", Pronouns[i], form)
	}
	return b.String()
}

func verdict(p quiz.Payload) string {
	if p.IsCorrect {
		return "\n\n✅ Верно!"
	}
	return "\n\n❌ Неверно. Правильный ответ: " + p.Correct
}
