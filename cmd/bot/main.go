package main

import (
	"context"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"nukem-bot/internal/app"
	"nukem-bot/internal/infra/config"
	"nukem-bot/internal/infra/log"
	"nukem-bot/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось запустить")
	}
	defer a.Close()

	// при long polling вебхук должен быть снят, иначе getUpdates вернёт конфликт
	if _, err := a.Bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		logger.Warn().Err(err).Msg("bot: не удалось снять вебхук")
	}

	a.Janitor.Start()
	defer a.Janitor.Stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	u.AllowedUpdates = []string{"message", "chat_member", "my_chat_member"}
	updates := a.Bot.GetUpdatesChan(u)

	logger.Info().Str("bot", a.Bot.Self.UserName).Msg("bot: long polling запущен")
	for {
		select {
		case <-ctx.Done():
			a.Bot.StopReceivingUpdates()
			logger.Info().Msg("bot: остановка")
			return
		case upd, ok := <-updates:
			if !ok {
				logger.Warn().Msg("bot: канал апдейтов закрыт")
				return
			}
			a.Handler.HandleUpdate(ctx, upd)
		}
	}
}
