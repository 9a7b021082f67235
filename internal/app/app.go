package app

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"nukem-bot/internal/adapters/bot"
	"nukem-bot/internal/adapters/keywords"
	"nukem-bot/internal/adapters/repo"
	"nukem-bot/internal/adapters/telegram"
	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/cache"
	"nukem-bot/internal/infra/config"
	"nukem-bot/internal/infra/db"
	"nukem-bot/internal/usecase/admins"
	"nukem-bot/internal/usecase/broadcast"
	"nukem-bot/internal/usecase/content"
	"nukem-bot/internal/usecase/janitor"
	"nukem-bot/internal/usecase/karma"
	"nukem-bot/internal/usecase/moderation"
	"nukem-bot/internal/usecase/stats"
	"nukem-bot/internal/usecase/throttle"
	"nukem-bot/internal/usecase/tracking"
)

const redisPrefix = "nukem:"

// App собирает зависимости бота для cmd/bot и cmd/bot-worker.
type App struct {
	Bot     *tgbotapi.BotAPI
	Handler *bot.Handler
	Janitor *janitor.Janitor
	Redis   *redis.Client

	closers []func() error
	log     zerolog.Logger
}

// New поднимает хранилище, лимитер, сервисы и обработчик апдейтов.
func New(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*App, error) {
	a := &App{log: logger}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("хранилище: %w", err)
	}

	var (
		limiter domain.RateLimiter
		cool    domain.Cooldowns
		pruner  janitor.Pruner
	)
	if cfg.Redis.Addr != "" {
		client, err := OpenRedis(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
		rc := cache.NewRedis(client, redisPrefix)
		limiter, cool = rc, rc
	} else {
		mem := cache.NewMemory()
		limiter, cool, pruner = mem, mem, mem
		logger.Info().Msg("app: REDIS_ADDR не задан, лимиты хранятся в памяти")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("создание бота: %w", err)
	}
	a.Bot = botAPI
	messenger := telegram.NewClient(botAPI, logger)

	registry := admins.NewRegistry(config.AdminIDs)
	if n, err := registry.Resync(); err != nil {
		logger.Warn().Err(err).Msg("app: не удалось загрузить список админов, список пуст")
	} else {
		logger.Info().Int("admins", n).Ints64("ids", registry.Snapshot()).Msg("app: список админов загружен")
	}

	policy, err := tracking.ParseLeavePolicy(cfg.Limits.LeavePolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	matcher, err := keywords.NewMatcher(keywords.DefaultRules())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ключевые слова: %w", err)
	}

	moderationSvc := moderation.NewService(store, store, messenger, cfg.Limits.WarningTTL, logger)
	a.Handler = bot.NewHandler(bot.Deps{
		Messenger: messenger,
		Tracking:  tracking.NewService(store, messenger, policy, logger),
		Admins:    registry,
		Broadcast: broadcast.NewService(store, messenger, broadcast.Config{
			MentionsPerMessage: cfg.Limits.MentionsPerMessage,
			MaxAttempts:        cfg.Limits.BroadcastMaxAttempts,
			RetryDelay:         cfg.Limits.BroadcastRetryDelay,
		}, logger),
		Content:    content.NewProvider(),
		Karma:      karma.NewService(store, store, logger),
		Moderation: moderationSvc,
		Stats:      stats.NewTracker(stats.SelfProbe()),
		Guard: throttle.NewGuard(limiter, cool, throttle.Config{
			Requests:        cfg.Limits.RateLimitRequests,
			Window:          cfg.Limits.RateLimitWindow,
			KeywordCooldown: cfg.Limits.KeywordCooldown,
		}, logger),
		Keywords:        matcher,
		AllowChatAdmins: cfg.Admins.AllowChatAdmins,
		BotUsername:     botAPI.Self.UserName,
	}, logger)

	a.Janitor = janitor.New(moderationSvc, pruner, cfg.Limits.RateLimitWindow, logger)
	if err := a.Janitor.Schedule(cfg.Limits.JanitorInterval); err != nil {
		a.Close()
		return nil, fmt.Errorf("планировщик уборки: %w", err)
	}

	logger.Info().Str("bot", botAPI.Self.UserName).Str("store", cfg.Store.Driver).Msg("app: зависимости собраны")
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.AppConfig) (domain.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := db.Connect(ctx, cfg.Store.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := db.Migrate(ctx, pool, a.log); err != nil {
			return nil, fmt.Errorf("миграции: %w", err)
		}
		return repo.NewPostgres(pool), nil
	case "sqlite":
		s, err := repo.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case "memory":
		a.log.Warn().Msg("app: хранилище в памяти, данные пропадут при перезапуске")
		return repo.NewMemory(), nil
	default:
		return nil, fmt.Errorf("неизвестный STORE_DRIVER %q", cfg.Store.Driver)
	}
}

// OpenRedis подключается к Redis и проверяет соединение.
func OpenRedis(ctx context.Context, cfg config.AppConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("подключение к redis: %w", err)
	}
	return client, nil
}

// Close освобождает ресурсы в обратном порядке.
func (a *App) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.log.Error().Err(err).Msg("app: ошибка при освобождении ресурсов")
	}
}

var (
	_ domain.Store     = (*repo.Postgres)(nil)
	_ domain.Store     = (*repo.SQLite)(nil)
	_ domain.Store     = (*repo.Memory)(nil)
	_ domain.Messenger = (*telegram.Client)(nil)
	_ janitor.Purger   = (*moderation.Service)(nil)
	_ janitor.Pruner   = (*cache.Memory)(nil)
)
