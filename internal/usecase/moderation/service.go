package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nukem-bot/internal/domain"
)

// ErrSelfTarget — нельзя модерировать самого себя.
var ErrSelfTarget = errors.New("нельзя применять к себе")

// Restrictor меняет права участника в чате.
type Restrictor interface {
	Restrict(ctx context.Context, chatID, userID int64, until time.Time, canSend bool) error
}

// Service выдаёт предупреждения и мьюты.
type Service struct {
	warnings   domain.WarningRepo
	mutes      domain.MuteRepo
	restrictor Restrictor
	warningTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewService создаёт сервис модерации. warningTTL 0 означает, что предупреждения не истекают.
func NewService(warnings domain.WarningRepo, mutes domain.MuteRepo, restrictor Restrictor, warningTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		warnings:   warnings,
		mutes:      mutes,
		restrictor: restrictor,
		warningTTL: warningTTL,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// Action описывает, кто и к кому применяет меру.
type Action struct {
	ChatID    int64
	TargetID  int64
	ActorID   int64
	ActorName string
	Reason    string
}

// Warn сохраняет предупреждение и возвращает число активных.
func (s *Service) Warn(ctx context.Context, a Action) (domain.Warning, int, error) {
	if a.ActorID == a.TargetID {
		return domain.Warning{}, 0, ErrSelfTarget
	}
	now := s.now()
	w := domain.Warning{
		ChatID:       a.ChatID,
		UserID:       a.TargetID,
		Reason:       reasonOrDefault(a.Reason),
		IssuedBy:     a.ActorID,
		IssuedByName: a.ActorName,
		CreatedAt:    now,
	}
	if s.warningTTL > 0 {
		expires := now.Add(s.warningTTL)
		w.ExpiresAt = &expires
	}
	saved, err := s.warnings.AddWarning(ctx, w)
	if err != nil {
		return domain.Warning{}, 0, fmt.Errorf("сохранение предупреждения: %w", err)
	}
	active, err := s.warnings.ListWarnings(ctx, a.ChatID, a.TargetID, now)
	if err != nil {
		return saved, 0, fmt.Errorf("подсчёт предупреждений: %w", err)
	}
	s.log.Info().Int64("chat", a.ChatID).Int64("user", a.TargetID).Int64("actor", a.ActorID).Int("active", len(active)).Msg("moderation: предупреждение выдано")
	return saved, len(active), nil
}

// Unwarn снимает последнее активное предупреждение и возвращает остаток.
func (s *Service) Unwarn(ctx context.Context, chatID, targetID int64) (domain.Warning, int, error) {
	now := s.now()
	removed, err := s.warnings.RemoveLatestWarning(ctx, chatID, targetID, now)
	if err != nil {
		return domain.Warning{}, 0, fmt.Errorf("снятие предупреждения: %w", err)
	}
	active, err := s.warnings.ListWarnings(ctx, chatID, targetID, now)
	if err != nil {
		return removed, 0, fmt.Errorf("подсчёт предупреждений: %w", err)
	}
	return removed, len(active), nil
}

// Warnings возвращает активные предупреждения, новые первыми.
func (s *Service) Warnings(ctx context.Context, chatID, userID int64) ([]domain.Warning, error) {
	list, err := s.warnings.ListWarnings(ctx, chatID, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("список предупреждений: %w", err)
	}
	return list, nil
}

// Mute запрещает участнику писать на duration. Нулевая длительность означает бессрочно.
func (s *Service) Mute(ctx context.Context, a Action, duration time.Duration) (domain.Mute, error) {
	if a.ActorID == a.TargetID {
		return domain.Mute{}, ErrSelfTarget
	}
	now := s.now()
	m := domain.Mute{
		ChatID:    a.ChatID,
		UserID:    a.TargetID,
		Reason:    reasonOrDefault(a.Reason),
		IssuedBy:  a.ActorID,
		CreatedAt: now,
	}
	if duration > 0 {
		m.Until = now.Add(duration)
	}
	if err := s.restrictor.Restrict(ctx, a.ChatID, a.TargetID, m.Until, false); err != nil {
		return domain.Mute{}, fmt.Errorf("ограничение участника: %w", err)
	}
	if err := s.mutes.SaveMute(ctx, m); err != nil {
		return m, fmt.Errorf("сохранение мьюта: %w", err)
	}
	s.log.Info().Int64("chat", a.ChatID).Int64("user", a.TargetID).Dur("duration", duration).Msg("moderation: участник замьючен")
	return m, nil
}

// Unmute возвращает участнику право писать.
func (s *Service) Unmute(ctx context.Context, chatID, targetID int64) error {
	if err := s.restrictor.Restrict(ctx, chatID, targetID, time.Time{}, true); err != nil {
		return fmt.Errorf("снятие ограничения: %w", err)
	}
	if err := s.mutes.DeleteMute(ctx, chatID, targetID); err != nil {
		return fmt.Errorf("удаление мьюта: %w", err)
	}
	return nil
}

// PurgeExpired удаляет истёкшие предупреждения и мьюты.
func (s *Service) PurgeExpired(ctx context.Context) (int64, int64, error) {
	now := s.now()
	warnings, err := s.warnings.PurgeExpiredWarnings(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("очистка предупреждений: %w", err)
	}
	mutes, err := s.mutes.PurgeExpiredMutes(ctx, now)
	if err != nil {
		return warnings, 0, fmt.Errorf("очистка мьютов: %w", err)
	}
	return warnings, mutes, nil
}

func reasonOrDefault(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "No reason given"
	}
	return reason
}
