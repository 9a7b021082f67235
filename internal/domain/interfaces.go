package domain

import (
	"context"
	"time"
)

// UserRepo хранит отслеживаемых участников чатов.
type UserRepo interface {
	// UpsertSighting применяет наблюдение и сообщает, была ли создана новая запись.
	UpsertSighting(ctx context.Context, s Sighting) (TrackedUser, bool, error)
	ListChatUsers(ctx context.Context, chatID int64) ([]TrackedUser, error)
	GetUser(ctx context.Context, chatID, userID int64) (TrackedUser, error)
	FindByUsername(ctx context.Context, chatID int64, username string) (TrackedUser, error)
	RemoveUser(ctx context.Context, chatID, userID int64) error
}

// KarmaRepo управляет кармой и рейтингами.
type KarmaRepo interface {
	AddKarma(ctx context.Context, chatID, userID int64, delta int) (int, error)
	TopUsers(ctx context.Context, chatID int64, by LeaderboardKind, limit int) ([]TrackedUser, error)
}

// WarningRepo управляет предупреждениями.
type WarningRepo interface {
	AddWarning(ctx context.Context, w Warning) (Warning, error)
	ListWarnings(ctx context.Context, chatID, userID int64, now time.Time) ([]Warning, error)
	RemoveLatestWarning(ctx context.Context, chatID, userID int64, now time.Time) (Warning, error)
	PurgeExpiredWarnings(ctx context.Context, now time.Time) (int64, error)
}

// MuteRepo управляет мьютами.
type MuteRepo interface {
	SaveMute(ctx context.Context, m Mute) error
	DeleteMute(ctx context.Context, chatID, userID int64) error
	PurgeExpiredMutes(ctx context.Context, now time.Time) (int64, error)
}

// Store объединяет все репозитории одного хранилища.
type Store interface {
	UserRepo
	KarmaRepo
	WarningRepo
	MuteRepo
}

// LeaderboardKind задаёт сортировку рейтинга.
type LeaderboardKind string

const (
	LeaderboardKarma    LeaderboardKind = "karma"
	LeaderboardActivity LeaderboardKind = "activity"
)

// Messenger — исходящий канал платформы.
type Messenger interface {
	Send(ctx context.Context, msg OutgoingMessage) (SentMessage, error)
	Pin(ctx context.Context, chatID int64, messageID int, notify bool) error
	Restrict(ctx context.Context, chatID, userID int64, until time.Time, canSend bool) error
	ChatAdministrators(ctx context.Context, chatID int64) ([]ChatMember, error)
	MemberStatus(ctx context.Context, chatID, userID int64) (MemberStatus, error)
}

// RateLimiter ограничивает частоту запросов в скользящем окне.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Cooldowns выдаёт разрешение не чаще, чем раз в ttl для ключа.
type Cooldowns interface {
	// Acquire возвращает 0, если ключ свободен, иначе оставшееся время.
	Acquire(ctx context.Context, key string, ttl time.Duration) (time.Duration, error)
}
