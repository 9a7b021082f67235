package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"nukem-bot/internal/app"
	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/config"
	httpserver "nukem-bot/internal/infra/http"
	"nukem-bot/internal/infra/log"
	"nukem-bot/internal/infra/metrics"
	"nukem-bot/internal/infra/queue"
)

const webhookPath = "/bot/webhook"

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv, cfg.LogFile)
	if cfg.Redis.Addr == "" {
		logger.Fatal().Msg("gateway: REDIS_ADDR обязателен для очереди апдейтов")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	client, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway: нет подключения к Redis")
	}
	defer client.Close()
	var updates domain.UpdateQueue = queue.NewRedisUpdateQueue(client, cfg.Queues.Updates)

	if cfg.Telegram.WebhookURL != "" {
		if err := registerWebhook(cfg, logger); err != nil {
			logger.Fatal().Err(err).Msg("gateway: не удалось зарегистрировать вебхук")
		}
	}

	srv := httpserver.NewServer(logger)
	srv.Router.Group(func(r chi.Router) {
		r.Use(httpserver.WebhookSecretMiddleware(cfg.Telegram.WebhookSecret))
		r.Post(webhookPath, httpserver.WebhookHandler(updates, logger))
	})

	go func() {
		addr := ":" + strconv.Itoa(cfg.Port)
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("gateway: HTTP сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("gateway: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// registerWebhook вызывает setWebhook напрямую: WebhookConfig в tgbotapi v5.5 не знает secret_token.
func registerWebhook(cfg config.AppConfig, logger zerolog.Logger) error {
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	params := tgbotapi.Params{}
	params.AddNonEmpty("url", cfg.Telegram.WebhookURL)
	params.AddNonEmpty("secret_token", cfg.Telegram.WebhookSecret)
	if err := params.AddInterface("allowed_updates", []string{"message", "chat_member", "my_chat_member"}); err != nil {
		return err
	}
	if _, err := bot.MakeRequest("setWebhook", params); err != nil {
		return err
	}
	logger.Info().Str("url", cfg.Telegram.WebhookURL).Msg("gateway: вебхук зарегистрирован")
	return nil
}
