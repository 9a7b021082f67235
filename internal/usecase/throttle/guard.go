package throttle

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"nukem-bot/internal/domain"
)

// DefaultCooldown применяется к командам без собственного кулдауна.
const DefaultCooldown = 5 * time.Second

// DefaultCooldowns возвращает кулдауны команд на пользователя.
func DefaultCooldowns() map[string]time.Duration {
	return map[string]time.Duration{
		"mentionall":   120 * time.Second,
		"alien_scan":   30 * time.Second,
		"rate_my_play": 10 * time.Second,
		"warn":         10 * time.Second,
		"karma":        5 * time.Second,
		"stats":        10 * time.Second,
		"info":         10 * time.Second,
		"help_nukem":   5 * time.Second,
		"sync_users":   300 * time.Second,
	}
}

// Config задаёт лимиты.
type Config struct {
	Requests        int
	Window          time.Duration
	Cooldowns       map[string]time.Duration
	KeywordCooldown time.Duration
}

// Guard применяет лимит частоты и кулдауны. Ошибки бэкенда не блокируют пользователя.
type Guard struct {
	limiter   domain.RateLimiter
	cooldowns domain.Cooldowns
	cfg       Config
	log       zerolog.Logger
}

// NewGuard создаёт Guard.
func NewGuard(limiter domain.RateLimiter, cooldowns domain.Cooldowns, cfg Config, log zerolog.Logger) *Guard {
	if cfg.Cooldowns == nil {
		cfg.Cooldowns = DefaultCooldowns()
	}
	return &Guard{limiter: limiter, cooldowns: cooldowns, cfg: cfg, log: log}
}

// AllowRequest учитывает запрос пользователя в скользящем окне.
func (g *Guard) AllowRequest(ctx context.Context, userID int64) bool {
	if g.cfg.Requests <= 0 || g.cfg.Window <= 0 {
		return true
	}
	ok, err := g.limiter.Allow(ctx, "user:"+strconv.FormatInt(userID, 10), g.cfg.Requests, g.cfg.Window)
	if err != nil {
		g.log.Warn().Err(err).Int64("user", userID).Msg("throttle: лимитер недоступен, пропускаем")
		return true
	}
	return ok
}

// CooldownFor возвращает кулдаун команды.
func (g *Guard) CooldownFor(command string) time.Duration {
	if d, ok := g.cfg.Cooldowns[command]; ok {
		return d
	}
	return DefaultCooldown
}

// Cooldown занимает кулдаун команды для пользователя. Возвращает 0, если команду можно выполнять.
func (g *Guard) Cooldown(ctx context.Context, command string, userID int64) time.Duration {
	ttl := g.CooldownFor(command)
	if ttl <= 0 {
		return 0
	}
	left, err := g.cooldowns.Acquire(ctx, "cmd:"+command+":"+strconv.FormatInt(userID, 10), ttl)
	if err != nil {
		g.log.Warn().Err(err).Str("command", command).Int64("user", userID).Msg("throttle: кулдауны недоступны, пропускаем")
		return 0
	}
	return left
}

// AllowKeyword разрешает реакцию на ключевое слово в чате не чаще KeywordCooldown.
func (g *Guard) AllowKeyword(ctx context.Context, chatID int64, keyword string) bool {
	if g.cfg.KeywordCooldown <= 0 {
		return true
	}
	left, err := g.cooldowns.Acquire(ctx, "kw:"+strconv.FormatInt(chatID, 10)+":"+keyword, g.cfg.KeywordCooldown)
	if err != nil {
		g.log.Warn().Err(err).Int64("chat", chatID).Msg("throttle: кулдаун ключевых слов недоступен")
		return false
	}
	return left == 0
}
