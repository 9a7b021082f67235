package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"nukem-bot/internal/app"
	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/config"
	"nukem-bot/internal/infra/log"
	"nukem-bot/internal/infra/metrics"
	"nukem-bot/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv, cfg.LogFile)
	if cfg.Redis.Addr == "" {
		logger.Fatal().Msg("worker: REDIS_ADDR обязателен, апдейты приходят через очередь")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: не удалось запустить")
	}
	defer a.Close()

	a.Janitor.Start()
	defer a.Janitor.Stop()

	var q domain.UpdateQueue = queue.NewRedisUpdateQueue(a.Redis, cfg.Queues.Updates)
	logger.Info().Str("queue", cfg.Queues.Updates).Msg("worker: обработка очереди запущена")
	for {
		job, err := q.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info().Msg("worker: остановка")
				return
			}
			logger.Error().Err(err).Msg("worker: ошибка чтения очереди")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		metrics.UpdateQueueLag.Observe(time.Since(job.ReceivedAt).Seconds())

		var upd tgbotapi.Update
		if err := json.Unmarshal(job.Payload, &upd); err != nil {
			logger.Error().Err(err).Str("job", job.ID).Int("update_id", job.UpdateID).Msg("worker: битый апдейт пропущен")
			continue
		}
		a.Handler.HandleUpdate(ctx, upd)
	}
}
