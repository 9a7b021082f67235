package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"nukem-bot/internal/infra/cache"
)

type brokenBackend struct{}

func (brokenBackend) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenBackend) Acquire(context.Context, string, time.Duration) (time.Duration, error) {
	return 0, errors.New("redis down")
}

func TestAllowRequestWindow(t *testing.T) {
	mem := cache.NewMemory()
	g := NewGuard(mem, mem, Config{Requests: 5, Window: 5 * time.Second}, zerolog.Nop())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.True(t, g.AllowRequest(ctx, 1), "запрос %d", i+1)
	}
	require.False(t, g.AllowRequest(ctx, 1))
	require.True(t, g.AllowRequest(ctx, 2), "лимит на пользователя")
}

func TestCooldown(t *testing.T) {
	mem := cache.NewMemory()
	g := NewGuard(mem, mem, Config{}, zerolog.Nop())
	ctx := context.Background()

	require.Zero(t, g.Cooldown(ctx, "mentionall", 1))
	left := g.Cooldown(ctx, "mentionall", 1)
	require.Greater(t, left, time.Duration(0))
	require.LessOrEqual(t, left, 120*time.Second)
	require.Zero(t, g.Cooldown(ctx, "mentionall", 2))
	require.Zero(t, g.Cooldown(ctx, "alien_scan", 1), "кулдауны команд независимы")
}

func TestCooldownFor(t *testing.T) {
	g := NewGuard(nil, nil, Config{}, zerolog.Nop())
	require.Equal(t, 300*time.Second, g.CooldownFor("sync_users"))
	require.Equal(t, DefaultCooldown, g.CooldownFor("nukem_quote"))
}

func TestKeywordCooldown(t *testing.T) {
	mem := cache.NewMemory()
	g := NewGuard(mem, mem, Config{KeywordCooldown: time.Minute}, zerolog.Nop())
	ctx := context.Background()
	require.True(t, g.AllowKeyword(ctx, 7, "gum"))
	require.False(t, g.AllowKeyword(ctx, 7, "gum"))
	require.True(t, g.AllowKeyword(ctx, 8, "gum"))
}

func TestBackendErrors(t *testing.T) {
	g := NewGuard(brokenBackend{}, brokenBackend{}, Config{Requests: 1, Window: time.Second, KeywordCooldown: time.Minute}, zerolog.Nop())
	ctx := context.Background()
	require.True(t, g.AllowRequest(ctx, 1))
	require.Zero(t, g.Cooldown(ctx, "info", 1))
	require.False(t, g.AllowKeyword(ctx, 1, "gum"), "реакции на ключевые слова при сбое отключаются")
}
