package bot

import (
	"context"
	"time"

	"github.com/example/verbbot/internal/config"
	"github.com/example/verbbot/internal/flow"
	"github.com/example/verbbot/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

const (
	updateTimeout  = 60
	handlerTimeout = 30 * time.Second
	maxInFlight    = 16
)

// Controller is the part of the daily flow reachable from chat
type Controller interface {
	Register(ctx context.Context, userID int64) (bool, error)
	Status(ctx context.Context, userID int64) (flow.Status, error)
	StartTestFlow(ctx context.Context, userID int64) (time.Duration, error)
	ResetProgress(ctx context.Context, userID int64) error
	HandleQuizAnswer(ctx context.Context, cb flow.Callback) (flow.Outcome, error)
}

// Bot routes Telegram updates to the daily flow
type Bot struct {
	api          *tgbotapi.BotAPI
	gateway      flow.Gateway
	ctrl         Controller
	schedule     config.Schedule
	adminUserIDs map[int64]bool
	log          *logger.Logger
	maxInFlight  int
}

// New creates a bot. The gateway is used for every reply.
func New(api *tgbotapi.BotAPI, gateway flow.Gateway, ctrl Controller, cfg *config.Config, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.Nop()
	}
	return &Bot{
		api:          api,
		gateway:      gateway,
		ctrl:         ctrl,
		schedule:     cfg.Schedule,
		adminUserIDs: cfg.AdminUserIDs,
		log:          log,
		maxInFlight:  maxInFlight,
	}
}

// Run polls updates until ctx is cancelled and waits for in-flight handlers
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = updateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.api.StopReceivingUpdates()

	b.log.Info("Bot started", "account", b.api.Self.UserName)
	b.serve(ctx, updates)
	b.log.Info("Bot stopped")
	return nil
}

// serve handles updates with at most maxInFlight running at once. Waiting
// for a free slot still observes ctx.
func (b *Bot) serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	var handlers errgroup.Group
	defer func() { _ = handlers.Wait() }()

	slots := make(chan struct{}, b.maxInFlight)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				b.log.Warn("Shutting down, update dropped", "update_id", update.UpdateID)
				return
			}
			handlers.Go(func() error {
				defer func() { <-slots }()
				hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
				defer cancel()
				b.HandleUpdate(hctx, update)
				return nil
			})
		}
	}
}

// HandleUpdate dispatches a single update
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Update handler panicked", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.gateway.SendMessage(ctx, chatID, text, nil); err != nil {
		b.log.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}
