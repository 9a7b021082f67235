package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"nukem-bot/internal/domain"
)

type chatUserKey struct {
	chatID int64
	userID int64
}

// Memory хранит данные в памяти процесса. Используется в тестах и для STORE_DRIVER=memory.
type Memory struct {
	mu       sync.RWMutex
	users    map[chatUserKey]domain.TrackedUser
	warnings []domain.Warning
	mutes    map[chatUserKey]domain.Mute
	nextID   int64
}

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[chatUserKey]domain.TrackedUser),
		mutes: make(map[chatUserKey]domain.Mute),
	}
}

// UpsertSighting реализует domain.UserRepo.
func (m *Memory) UpsertSighting(_ context.Context, s domain.Sighting) (domain.TrackedUser, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chatUserKey{s.ChatID, s.UserID}
	existing, ok := m.users[key]
	var merged domain.TrackedUser
	if ok {
		merged = s.Merge(&existing)
	} else {
		merged = s.Merge(nil)
	}
	m.users[key] = merged
	return merged, !ok, nil
}

// ListChatUsers реализует domain.UserRepo.
func (m *Memory) ListChatUsers(_ context.Context, chatID int64) ([]domain.TrackedUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.TrackedUser, 0)
	for key, u := range m.users {
		if key.chatID == chatID {
			out = append(out, u)
		}
	}
	sortByName(out)
	return out, nil
}

// GetUser реализует domain.UserRepo.
func (m *Memory) GetUser(_ context.Context, chatID, userID int64) (domain.TrackedUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[chatUserKey{chatID, userID}]
	if !ok {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	return u, nil
}

// FindByUsername реализует domain.UserRepo.
func (m *Memory) FindByUsername(_ context.Context, chatID int64, username string) (domain.TrackedUser, error) {
	username = normalizeUsername(username)
	if username == "" {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// username мог перейти к другому человеку: берём того, кого видели последним
	var (
		best  domain.TrackedUser
		found bool
	)
	for key, u := range m.users {
		if key.chatID != chatID || !strings.EqualFold(u.Username, username) {
			continue
		}
		if !found || u.LastSeen.After(best.LastSeen) || (u.LastSeen.Equal(best.LastSeen) && u.UserID > best.UserID) {
			best, found = u, true
		}
	}
	if !found {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	return best, nil
}

// RemoveUser реализует domain.UserRepo.
func (m *Memory) RemoveUser(_ context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, chatUserKey{chatID, userID})
	return nil
}

// AddKarma реализует domain.KarmaRepo.
func (m *Memory) AddKarma(_ context.Context, chatID, userID int64, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chatUserKey{chatID, userID}
	u, ok := m.users[key]
	if !ok {
		return 0, domain.ErrNotFound
	}
	u.Karma += delta
	m.users[key] = u
	return u.Karma, nil
}

// TopUsers реализует domain.KarmaRepo.
func (m *Memory) TopUsers(_ context.Context, chatID int64, by domain.LeaderboardKind, limit int) ([]domain.TrackedUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.TrackedUser
	for key, u := range m.users {
		if key.chatID != chatID || u.IsBot {
			continue
		}
		if by == domain.LeaderboardActivity && u.MessageCount == 0 {
			continue
		}
		if by != domain.LeaderboardActivity && u.Karma == 0 {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if by == domain.LeaderboardActivity {
			if out[i].MessageCount != out[j].MessageCount {
				return out[i].MessageCount > out[j].MessageCount
			}
		} else if out[i].Karma != out[j].Karma {
			return out[i].Karma > out[j].Karma
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddWarning реализует domain.WarningRepo.
func (m *Memory) AddWarning(_ context.Context, w domain.Warning) (domain.Warning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	w.ID = m.nextID
	m.warnings = append(m.warnings, w)
	return w, nil
}

// ListWarnings реализует domain.WarningRepo.
func (m *Memory) ListWarnings(_ context.Context, chatID, userID int64, now time.Time) ([]domain.Warning, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Warning
	for _, w := range m.warnings {
		if w.ChatID == chatID && w.UserID == userID && w.Active(now) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// RemoveLatestWarning реализует domain.WarningRepo.
func (m *Memory) RemoveLatestWarning(_ context.Context, chatID, userID int64, now time.Time) (domain.Warning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, w := range m.warnings {
		if w.ChatID != chatID || w.UserID != userID || !w.Active(now) {
			continue
		}
		if idx == -1 || !w.CreatedAt.Before(m.warnings[idx].CreatedAt) {
			idx = i
		}
	}
	if idx == -1 {
		return domain.Warning{}, domain.ErrNotFound
	}
	removed := m.warnings[idx]
	m.warnings = append(m.warnings[:idx], m.warnings[idx+1:]...)
	return removed, nil
}

// PurgeExpiredWarnings реализует domain.WarningRepo.
func (m *Memory) PurgeExpiredWarnings(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.warnings[:0]
	var purged int64
	for _, w := range m.warnings {
		if w.Active(now) {
			kept = append(kept, w)
			continue
		}
		purged++
	}
	m.warnings = kept
	return purged, nil
}

// SaveMute реализует domain.MuteRepo.
func (m *Memory) SaveMute(_ context.Context, mute domain.Mute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutes[chatUserKey{mute.ChatID, mute.UserID}] = mute
	return nil
}

// DeleteMute реализует domain.MuteRepo.
func (m *Memory) DeleteMute(_ context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mutes, chatUserKey{chatID, userID})
	return nil
}

// PurgeExpiredMutes реализует domain.MuteRepo.
func (m *Memory) PurgeExpiredMutes(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged int64
	for key, mute := range m.mutes {
		if !mute.Permanent() && !mute.Until.After(now) {
			delete(m.mutes, key)
			purged++
		}
	}
	return purged, nil
}

func sortByName(users []domain.TrackedUser) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := strings.ToLower(users[i].DisplayName()), strings.ToLower(users[j].DisplayName())
		if a != b {
			return a < b
		}
		return users[i].UserID < users[j].UserID
	})
}

func normalizeUsername(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}
