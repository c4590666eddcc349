package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/example/verbbot/internal/flow"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID
	command := message.Command()
	log := b.log.With("user_id", userID, "command", command)

	var err error
	switch command {
	case "start":
		err = b.handleStart(ctx, userID, chatID)
	case "status":
		err = b.handleStatus(ctx, userID, chatID)
	case "test":
		err = b.handleTest(ctx, userID, chatID)
	case "reset":
		err = b.handleReset(ctx, userID, chatID, message.CommandArguments())
	default:
		b.reply(ctx, chatID, textUnknown)
	}

	if err != nil {
		log.Error("Command failed", "error", err)
		b.reply(ctx, chatID, textError)
	}
}

func (b *Bot) handleStart(ctx context.Context, userID, chatID int64) error {
	created, err := b.ctrl.Register(ctx, userID)
	if err != nil {
		return err
	}
	if created {
		b.reply(ctx, chatID, welcomeText(b.schedule))
	} else {
		b.reply(ctx, chatID, textWelcomeBack)
	}
	return nil
}

func (b *Bot) handleStatus(ctx context.Context, userID, chatID int64) error {
	st, err := b.ctrl.Status(ctx, userID)
	if err != nil {
		return err
	}
	b.reply(ctx, chatID, statusText(st, b.schedule))
	return nil
}

func (b *Bot) handleTest(ctx context.Context, userID, chatID int64) error {
	// The test flow needs the user row for its progress
	if _, err := b.ctrl.Register(ctx, userID); err != nil {
		return err
	}
	total, err := b.ctrl.StartTestFlow(ctx, userID)
	if err != nil {
		return err
	}
	b.reply(ctx, chatID, testFlowText(total))
	return nil
}

// handleReset clears a user's day. Admin only; without an argument the
// admin's own progress is reset.
func (b *Bot) handleReset(ctx context.Context, userID, chatID int64, args string) error {
	if !b.isAdmin(userID) {
		b.reply(ctx, chatID, textAdminOnly)
		return nil
	}

	target := userID
	if args = strings.TrimSpace(args); args != "" {
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			b.reply(ctx, chatID, textResetUsage)
			return nil
		}
		target = id
	}

	if err := b.ctrl.ResetProgress(ctx, target); err != nil {
		return err
	}
	b.reply(ctx, chatID, resetDoneText(target))
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.From == nil {
		return
	}

	msg := callback.Message
	if msg == nil || msg.Chat == nil {
		// Inline-mode messages cannot be edited by chat id
		if err := b.gateway.Notify(ctx, callback.ID, flow.NoticeInvalidQuiz); err != nil {
			b.log.Error("Failed to answer callback", "user_id", callback.From.ID, "error", err)
		}
		return
	}

	cb := flow.Callback{
		ID:      callback.ID,
		Data:    callback.Data,
		From:    callback.From.ID,
		Message: flow.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID},
		Text:    msg.Text,
	}

	outcome, err := b.ctrl.HandleQuizAnswer(ctx, cb)
	if err != nil {
		b.log.Error("Failed to handle quiz answer", "user_id", cb.From, "outcome", outcome.String(), "error", err)
	}
}
