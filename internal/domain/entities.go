package domain

import (
	"strconv"
	"strings"
	"time"
)

// TrackedUser описывает участника чата, которого видел бот.
type TrackedUser struct {
	ChatID       int64
	UserID       int64
	Username     string
	FirstName    string
	LastName     string
	Status       MemberStatus
	IsBot        bool
	IsChatAdmin  bool
	Karma        int
	MessageCount int64
	FirstSeen    time.Time
	LastSeen     time.Time
}

// DisplayName возвращает имя для упоминаний.
func (u TrackedUser) DisplayName() string {
	return DisplayName(u.UserID, u.FirstName, u.LastName, u.Username)
}

// DisplayName собирает отображаемое имя из полей профиля.
func DisplayName(userID int64, firstName, lastName, username string) string {
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name != "" {
		return name
	}
	if username = strings.TrimSpace(username); username != "" {
		return "@" + username
	}
	return "User " + strconv.FormatInt(userID, 10)
}

// SightingKind описывает источник наблюдения пользователя.
type SightingKind string

const (
	// SightingMessage — пользователь написал сообщение.
	SightingMessage SightingKind = "message"
	// SightingMembership — изменилось членство пользователя в чате.
	SightingMembership SightingKind = "membership"
)

// Sighting — входные данные для upsert-on-sight.
type Sighting struct {
	ChatID      int64
	UserID      int64
	Username    string
	FirstName   string
	LastName    string
	IsBot       bool
	Kind        SightingKind
	Status      MemberStatus
	IsChatAdmin *bool
	SeenAt      time.Time
}

// Merge применяет наблюдение к сохранённой записи. Профиль перезаписывается только
// если наблюдение не старше last_seen; счётчик сообщений растёт всегда.
func (s Sighting) Merge(existing *TrackedUser) TrackedUser {
	if existing == nil {
		u := TrackedUser{
			ChatID:    s.ChatID,
			UserID:    s.UserID,
			Username:  s.Username,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Status:    s.Status,
			IsBot:     s.IsBot,
			FirstSeen: s.SeenAt,
			LastSeen:  s.SeenAt,
		}
		if u.Status == "" {
			u.Status = StatusMember
		}
		if s.IsChatAdmin != nil {
			u.IsChatAdmin = *s.IsChatAdmin
		}
		if s.Kind == SightingMessage {
			u.MessageCount = 1
		}
		return u
	}

	u := *existing
	if s.Kind == SightingMessage {
		u.MessageCount++
	}
	if s.SeenAt.Before(existing.LastSeen) {
		return u
	}
	u.Username = s.Username
	u.FirstName = s.FirstName
	u.LastName = s.LastName
	u.IsBot = s.IsBot
	u.LastSeen = s.SeenAt
	switch {
	case s.Status != "":
		u.Status = s.Status
	case !u.Status.Present():
		u.Status = StatusMember
	}
	if s.IsChatAdmin != nil {
		u.IsChatAdmin = *s.IsChatAdmin
	}
	return u
}

// Warning — предупреждение, выданное админом.
type Warning struct {
	ID           int64
	ChatID       int64
	UserID       int64
	Reason       string
	IssuedBy     int64
	IssuedByName string
	CreatedAt    time.Time
	ExpiresAt    *time.Time
}

// Active сообщает, действует ли предупреждение в момент now.
func (w Warning) Active(now time.Time) bool {
	return w.ExpiresAt == nil || w.ExpiresAt.After(now)
}

// Mute описывает ограничение на отправку сообщений.
type Mute struct {
	ChatID    int64
	UserID    int64
	Until     time.Time
	Reason    string
	IssuedBy  int64
	CreatedAt time.Time
}

// Permanent сообщает, что мьют бессрочный.
func (m Mute) Permanent() bool {
	return m.Until.IsZero()
}

// ChatMember — участник чата по данным Telegram.
type ChatMember struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
	Status    MemberStatus
}

// OutgoingMessage описывает исходящее сообщение.
type OutgoingMessage struct {
	ChatID              int64
	Text                string
	Markdown            bool
	ReplyTo             int
	DisableNotification bool
}

// SentMessage — результат отправки.
type SentMessage struct {
	ChatID    int64
	MessageID int
}
