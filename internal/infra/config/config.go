package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	LogFile     string `envconfig:"LOG_FILE"`
	Port        int    `envconfig:"PORT" default:"8080" validate:"gt=0,lt=65536"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Telegram struct {
		Token         string `envconfig:"NUKEM_BOT_TOKEN" validate:"required"`
		WebhookURL    string `envconfig:"TG_WEBHOOK_URL" validate:"omitempty,url"`
		WebhookSecret string `envconfig:"TG_WEBHOOK_SECRET"`
		PollTimeout   int    `envconfig:"TG_POLL_TIMEOUT" default:"60" validate:"gte=0"`
	} `envconfig:""`

	Admins struct {
		AllowChatAdmins bool `envconfig:"ALLOW_CHAT_ADMINS" default:"true"`
	} `envconfig:""`

	Store struct {
		Driver     string `envconfig:"STORE_DRIVER" default:"sqlite" validate:"oneof=postgres sqlite memory"`
		PGDSN      string `envconfig:"PG_DSN" validate:"required_if=Driver postgres"`
		SQLitePath string `envconfig:"SQLITE_PATH" default:"data/nukem.db"`
	} `envconfig:""`

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	} `envconfig:""`

	Queues struct {
		Updates string `envconfig:"UPDATES_QUEUE_KEY" default:"nukem_updates"`
	} `envconfig:""`

	Limits struct {
		RateLimitRequests    int           `envconfig:"RATE_LIMIT_REQUESTS" default:"5" validate:"gt=0"`
		RateLimitWindow      time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"5s" validate:"gt=0"`
		MentionsPerMessage   int           `envconfig:"MENTIONS_PER_MESSAGE" default:"50" validate:"gt=0,lte=100"`
		BroadcastMaxAttempts uint          `envconfig:"BROADCAST_MAX_ATTEMPTS" default:"1" validate:"gte=1"`
		BroadcastRetryDelay  time.Duration `envconfig:"BROADCAST_RETRY_DELAY" default:"2s"`
		WarningTTL           time.Duration `envconfig:"WARNING_TTL" default:"720h"`
		LeavePolicy          string        `envconfig:"LEAVE_POLICY" default:"keep" validate:"oneof=keep remove"`
		KeywordCooldown      time.Duration `envconfig:"KEYWORD_COOLDOWN" default:"60s"`
		JanitorInterval      time.Duration `envconfig:"JANITOR_INTERVAL" default:"10m" validate:"gt=0"`
	} `envconfig:""`
}

// Load загружает конфиг из .env и окружения.
func Load() AppConfig {
	_ = godotenv.Load()
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		log.Fatalf("некорректный конфиг: %v", err)
	}
	return cfg
}

// AdminIDs перечитывает NUKEM_ADMIN_USER_IDS. Значение из .env важнее окружения,
// чтобы правка файла подхватывалась без перезапуска.
func AdminIDs() ([]int64, error) {
	raw := os.Getenv("NUKEM_ADMIN_USER_IDS")
	if env, err := godotenv.Read(); err == nil {
		if v, ok := env["NUKEM_ADMIN_USER_IDS"]; ok {
			raw = v
		}
	}
	return ParseAdminIDs(raw)
}

// ParseAdminIDs разбирает список id через запятую. Пустые элементы пропускаются.
func ParseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
