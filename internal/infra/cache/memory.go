package cache

import (
	"context"
	"sync"
	"time"
)

// Memory — процессный вариант лимитера и кулдаунов, когда Redis не настроен.
type Memory struct {
	mu        sync.Mutex
	now       func() time.Time
	cooldowns map[string]time.Time
	windows   map[string][]time.Time
}

// NewMemory создаёт in-memory кэш.
func NewMemory() *Memory {
	return &Memory{
		now:       time.Now,
		cooldowns: make(map[string]time.Time),
		windows:   make(map[string][]time.Time),
	}
}

// Acquire занимает ключ на ttl.
func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if until, ok := m.cooldowns[key]; ok && until.After(now) {
		return until.Sub(now), nil
	}
	m.cooldowns[key] = now.Add(ttl)
	return 0, nil
}

// Allow проверяет скользящее окно для ключа.
func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	hits := trim(m.windows[key], now.Add(-window))
	if len(hits) >= limit {
		m.windows[key] = hits
		return false, nil
	}
	m.windows[key] = append(hits, now)
	return true, nil
}

// Prune удаляет истёкшие кулдауны и окна старше maxWindow.
func (m *Memory) Prune(maxWindow time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for key, until := range m.cooldowns {
		if !until.After(now) {
			delete(m.cooldowns, key)
			removed++
		}
	}
	for key, hits := range m.windows {
		hits = trim(hits, now.Add(-maxWindow))
		if len(hits) == 0 {
			delete(m.windows, key)
			removed++
			continue
		}
		m.windows[key] = hits
	}
	return removed
}

func trim(hits []time.Time, floor time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(floor) {
		i++
	}
	return hits[i:]
}
