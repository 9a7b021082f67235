package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemory() (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory()
	m.now = clock.now
	return m, clock
}

func TestMemorySlidingWindow(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	m, clock := newTestMemory()

	for i := 0; i < 5; i++ {
		ok, err := m.Allow(ctx, "u1", 5, 5*time.Second)
		r.NoError(err)
		r.True(ok, "request %d should pass", i)
		clock.advance(500 * time.Millisecond)
	}
	ok, _ := m.Allow(ctx, "u1", 5, 5*time.Second)
	r.False(ok, "sixth request inside window")

	ok, _ = m.Allow(ctx, "u2", 5, 5*time.Second)
	r.True(ok, "other keys are independent")

	clock.advance(3 * time.Second)
	ok, _ = m.Allow(ctx, "u1", 5, 5*time.Second)
	r.True(ok, "oldest hit left the window")
}

func TestMemoryCooldown(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	m, clock := newTestMemory()

	left, err := m.Acquire(ctx, "info:1", 10*time.Second)
	r.NoError(err)
	r.Zero(left)

	clock.advance(4 * time.Second)
	left, _ = m.Acquire(ctx, "info:1", 10*time.Second)
	r.Equal(6*time.Second, left)

	clock.advance(6 * time.Second)
	left, _ = m.Acquire(ctx, "info:1", 10*time.Second)
	r.Zero(left)
}

func TestMemoryPrune(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	m, clock := newTestMemory()

	_, _ = m.Acquire(ctx, "a", time.Second)
	_, _ = m.Allow(ctx, "b", 5, time.Second)
	clock.advance(2 * time.Second)

	r.Equal(2, m.Prune(time.Second))
	r.Empty(m.cooldowns)
	r.Empty(m.windows)
}
