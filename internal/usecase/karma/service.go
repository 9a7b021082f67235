package karma

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"nukem-bot/internal/domain"
)

var (
	// ErrSelfTarget — нельзя менять карму самому себе.
	ErrSelfTarget = errors.New("нельзя менять собственную карму")
	// ErrUnknownBoard — неизвестный вид рейтинга.
	ErrUnknownBoard = errors.New("неизвестный рейтинг")
)

// LeaderboardSize — сколько участников показывает рейтинг.
const LeaderboardSize = 10

// Service управляет кармой участников.
type Service struct {
	users domain.UserRepo
	karma domain.KarmaRepo
	log   zerolog.Logger
}

// NewService создаёт сервис кармы.
func NewService(users domain.UserRepo, karma domain.KarmaRepo, log zerolog.Logger) *Service {
	return &Service{users: users, karma: karma, log: log}
}

// Show возвращает участника вместе с его кармой.
func (s *Service) Show(ctx context.Context, chatID, userID int64) (domain.TrackedUser, error) {
	u, err := s.users.GetUser(ctx, chatID, userID)
	if err != nil {
		return domain.TrackedUser{}, fmt.Errorf("карма %d: %w", userID, err)
	}
	return u, nil
}

// Give добавляет единицу кармы.
func (s *Service) Give(ctx context.Context, chatID, actorID, targetID int64) (int, error) {
	return s.adjust(ctx, chatID, actorID, targetID, 1)
}

// Take снимает единицу кармы.
func (s *Service) Take(ctx context.Context, chatID, actorID, targetID int64) (int, error) {
	return s.adjust(ctx, chatID, actorID, targetID, -1)
}

func (s *Service) adjust(ctx context.Context, chatID, actorID, targetID int64, delta int) (int, error) {
	if actorID == targetID {
		return 0, ErrSelfTarget
	}
	total, err := s.karma.AddKarma(ctx, chatID, targetID, delta)
	if err != nil {
		return 0, fmt.Errorf("изменение кармы %d: %w", targetID, err)
	}
	s.log.Info().Int64("chat", chatID).Int64("user", targetID).Int64("actor", actorID).Int("delta", delta).Int("karma", total).Msg("karma: карма изменена")
	return total, nil
}

// ParseBoard разбирает аргумент /leaderboard. Пусто означает карму.
func ParseBoard(raw string) (domain.LeaderboardKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "karma":
		return domain.LeaderboardKarma, nil
	case "activity", "messages":
		return domain.LeaderboardActivity, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBoard, raw)
	}
}

// Leaderboard возвращает топ участников чата.
func (s *Service) Leaderboard(ctx context.Context, chatID int64, by domain.LeaderboardKind) ([]domain.TrackedUser, error) {
	top, err := s.karma.TopUsers(ctx, chatID, by, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("рейтинг %s: %w", by, err)
	}
	return top, nil
}
