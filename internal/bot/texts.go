package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/verbbot/internal/config"
	"github.com/example/verbbot/internal/flow"
)

const (
	textWelcomeBack  = "👋 С возвращением! Расписание на каждый день снова включено."
	textNotStarted   = "Сначала отправь /start."
	textAdminOnly    = "Команда доступна только администраторам."
	textResetUsage   = "Использование: /reset [user_id]"
	textUnknown      = "Неизвестная команда. Доступно: /start, /status, /test"
	textError        = "❌ Произошла ошибка. Пожалуйста, попробуйте позже."
	textAllTensesOut = "✅ Все времена на сегодня отправлены."
)

func welcomeText(s config.Schedule) string {
	return fmt.Sprintf("👋 Привет! Я помогу учить испанские глаголы.\n\n"+
		"Каждый день:\n"+
		"• %s — глагол дня\n"+
		"• %s — квиз на перевод\n"+
		"• %s — квиз на инфинитив\n"+
		"• с %02d:00 до %02d:00 — по одному времени в час\n\n"+
		"/status — что уже пришло сегодня\n"+
		"/test — пройти весь день за пару минут",
		s.VerbAt, s.Quiz1At, s.Quiz2At, s.TenseFromHour, s.TenseToHour)
}

func statusText(st flow.Status, s config.Schedule) string {
	if !st.Registered {
		return textNotStarted
	}
	if st.Verb == nil {
		return fmt.Sprintf("⏳ Глагол дня ещё не выбран, он придёт в %s.", s.VerbAt)
	}

	var b strings.Builder
	b.WriteString("📚 Глагол дня: " + st.Verb.Infinitive)
	if st.Verb.Translation != "" {
		b.WriteString(" — " + st.Verb.Translation)
	}
	b.WriteString("\n")

	switch st.State.Stage {
	case flow.StageVerbChosen:
		fmt.Fprintf(&b, "⏳ Спряжения начнутся в %02d:00.", s.TenseFromHour)
	case flow.StageTenseSlot:
		fmt.Fprintf(&b, "📖 Следующее время: %s", st.State.NextTense)
	case flow.StageDone:
		b.WriteString(textAllTensesOut)
	}
	return b.String()
}

func testFlowText(total time.Duration) string {
	return fmt.Sprintf("🧪 Тестовый режим: прогресс сброшен, весь день пройдёт за %s.", total)
}

func resetDoneText(userID int64) string {
	return fmt.Sprintf("Прогресс пользователя %d сброшен.", userID)
}
