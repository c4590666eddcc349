package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/verbbot/internal/bot"
	"github.com/example/verbbot/internal/database"
	"github.com/example/verbbot/internal/flow"
	"github.com/example/verbbot/internal/logger"
	"github.com/example/verbbot/internal/quiz"
	"github.com/example/verbbot/internal/scheduler"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	log.Info("Verb catalog loaded", "file", cfg.VerbsFile, "verbs", catalog.Len(), "tenses", catalog.TenseNames())
	for _, answer := range oversizedAnswers(catalog) {
		log.Warn("Quiz answer exceeds Telegram callback data limit", "answer", answer, "limit", quiz.MaxPayloadLen)
	}

	store, err := database.Open(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	gateway := bot.NewGateway(api)

	sched := scheduler.New(cfg.Location)
	ctrl := flow.New(flow.Options{
		Store:     store,
		Catalog:   catalog,
		Gateway:   gateway,
		Scheduler: sched,
		Schedule:  cfg.Schedule,
		Location:  cfg.Location,
		Logger:    log,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, err := ctrl.ScheduleAll(ctx)
	if err != nil {
		return err
	}
	sched.Start()
	log.Info("Scheduler started", "users", users, "timezone", cfg.Location.String())

	b := bot.New(api, gateway, ctrl, cfg, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		sched.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
