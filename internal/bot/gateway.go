package bot

import (
	"context"
	"fmt"

	"github.com/example/verbbot/internal/flow"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Gateway delivers flow content through the Telegram Bot API
type Gateway struct {
	api *tgbotapi.BotAPI
}

// NewGateway wraps an authorized bot API client
func NewGateway(api *tgbotapi.BotAPI) *Gateway {
	return &Gateway{api: api}
}

// createKeyboard puts each button on its own row
func createKeyboard(buttons []flow.Button) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, button := range buttons {
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// SendMessage sends text to a private chat, with answer buttons if any
func (g *Gateway) SendMessage(_ context.Context, userID int64, text string, buttons []flow.Button) (flow.MessageRef, error) {
	msg := tgbotapi.NewMessage(userID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	}

	sent, err := g.api.Send(msg)
	if err != nil {
		return flow.MessageRef{}, fmt.Errorf("send message to %d: %w", userID, err)
	}

	ref := flow.MessageRef{ChatID: userID, MessageID: sent.MessageID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

// EditMessage replaces the text of a message and drops its buttons
func (g *Gateway) EditMessage(_ context.Context, ref flow.MessageRef, text string) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	if _, err := g.api.Send(edit); err != nil {
		return fmt.Errorf("edit message %d: %w", ref.MessageID, err)
	}
	return nil
}

// Notify answers a callback query. A non-empty text is shown as an alert.
func (g *Gateway) Notify(_ context.Context, callbackID, text string) error {
	answer := tgbotapi.NewCallback(callbackID, "")
	if text != "" {
		answer = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := g.api.Request(answer); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}
