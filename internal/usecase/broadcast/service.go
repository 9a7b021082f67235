package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"nukem-bot/internal/adapters/telegram"
	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
)

// ErrMessageTooLong — текст рассылки не помещается в сообщение вместе с упоминаниями.
var ErrMessageTooLong = errors.New("сообщение слишком длинное")

// MaxBodyLength — предельная длина экранированного текста рассылки в рунах.
const MaxBodyLength = 3000

// Sender отправляет сообщения в чат.
type Sender interface {
	Send(ctx context.Context, msg domain.OutgoingMessage) (domain.SentMessage, error)
}

// Config задаёт параметры рассылок.
type Config struct {
	MentionsPerMessage int
	MaxAttempts        uint
	RetryDelay         time.Duration
}

// Service рассылает упоминания участникам чата.
type Service struct {
	users  domain.UserRepo
	sender Sender
	cfg    Config
	log    zerolog.Logger
}

// NewService создаёт сервис рассылок.
func NewService(users domain.UserRepo, sender Sender, cfg Config, log zerolog.Logger) *Service {
	if cfg.MentionsPerMessage <= 0 {
		cfg.MentionsPerMessage = 50
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	return &Service{users: users, sender: sender, cfg: cfg, log: log}
}

// PartFailure описывает часть рассылки, которую не удалось доставить.
type PartFailure struct {
	Part       int
	Recipients int
	Err        error
}

// Result — итог рассылки всем участникам.
type Result struct {
	Recipients int
	Parts      int
	Sent       int
	Failures   []PartFailure
}

// BroadcastAll упоминает всех отслеживаемых участников чата пачками.
// Пустой чат не ошибка: ничего не отправляется.
func (s *Service) BroadcastAll(ctx context.Context, chatID int64, message string) (Result, error) {
	body, err := prepareBody(message)
	if err != nil {
		return Result{}, err
	}
	users, err := s.users.ListChatUsers(ctx, chatID)
	if err != nil {
		return Result{}, fmt.Errorf("получатели рассылки: %w", err)
	}
	recipients := lo.Filter(users, func(u domain.TrackedUser, _ int) bool {
		return !u.IsBot && u.Status.Present()
	})
	if len(recipients) == 0 {
		return Result{}, nil
	}

	chunks := lo.Chunk(lo.Map(recipients, func(u domain.TrackedUser, _ int) int64 { return u.UserID }), s.cfg.MentionsPerMessage)
	res := Result{Recipients: len(recipients), Parts: len(chunks)}
	for i, ids := range chunks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		text := partHeader(i+1) + "\n\n" + body + "\n\n*Tagging:* " + strings.Join(lo.Map(ids, func(id int64, _ int) string {
			return telegram.SilentMention(id)
		}), "")
		if _, err := s.send(ctx, domain.OutgoingMessage{ChatID: chatID, Text: text, Markdown: true}); err != nil {
			metrics.BroadcastMessages.WithLabelValues("failed").Inc()
			s.log.Error().Err(err).Int64("chat", chatID).Int("part", i+1).Msg("broadcast: часть рассылки не доставлена")
			res.Failures = append(res.Failures, PartFailure{Part: i + 1, Recipients: len(ids), Err: err})
			continue
		}
		metrics.BroadcastMessages.WithLabelValues("sent").Inc()
		res.Sent++
	}
	s.log.Info().Int64("chat", chatID).Int("recipients", res.Recipients).Int("parts", res.Parts).Int("failed", len(res.Failures)).Msg("broadcast: рассылка завершена")
	return res, nil
}

func partHeader(part int) string {
	if part == 1 {
		return "📢 👑 *Listen up, you meatbags\\!* 🔥"
	}
	return "📟 *Continuing broadcast \\(part " + strconv.Itoa(part) + "\\):*"
}

// TargetResult — итог адресного упоминания.
type TargetResult struct {
	Mentioned []domain.TrackedUser
	NotFound  []string
	Message   domain.SentMessage
}

// BroadcastTo упоминает указанных участников одним сообщением. Нераспознанные
// цели возвращаются в NotFound; если не нашлось никого, ничего не отправляется.
func (s *Service) BroadcastTo(ctx context.Context, chatID int64, handles []string, message string) (TargetResult, error) {
	body, err := prepareBody(message)
	if err != nil {
		return TargetResult{}, err
	}
	var res TargetResult
	for _, handle := range lo.Uniq(handles) {
		u, ok, err := s.resolve(ctx, chatID, handle)
		if err != nil {
			return TargetResult{}, err
		}
		if !ok {
			res.NotFound = append(res.NotFound, handle)
			continue
		}
		res.Mentioned = append(res.Mentioned, u)
	}
	res.Mentioned = lo.UniqBy(res.Mentioned, func(u domain.TrackedUser) int64 { return u.UserID })
	if len(res.Mentioned) == 0 {
		return res, nil
	}

	mentions := lo.Map(res.Mentioned, func(u domain.TrackedUser, _ int) string {
		return telegram.Mention(u.DisplayName(), u.UserID)
	})
	text := "🎯 " + strings.Join(mentions, ", ") + ", " + body + " 🔥"
	sent, err := s.send(ctx, domain.OutgoingMessage{ChatID: chatID, Text: text, Markdown: true})
	if err != nil {
		metrics.BroadcastMessages.WithLabelValues("failed").Inc()
		return res, fmt.Errorf("адресное упоминание: %w", err)
	}
	metrics.BroadcastMessages.WithLabelValues("sent").Inc()
	res.Message = sent
	return res, nil
}

func (s *Service) resolve(ctx context.Context, chatID int64, handle string) (domain.TrackedUser, bool, error) {
	if strings.HasPrefix(handle, "@") {
		u, err := s.users.FindByUsername(ctx, chatID, handle)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return domain.TrackedUser{}, false, nil
		case err != nil:
			return domain.TrackedUser{}, false, fmt.Errorf("поиск %s: %w", handle, err)
		}
		return u, true, nil
	}
	id, err := strconv.ParseInt(handle, 10, 64)
	if err != nil || id <= 0 {
		return domain.TrackedUser{}, false, nil
	}
	u, err := s.users.GetUser(ctx, chatID, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.TrackedUser{ChatID: chatID, UserID: id}, true, nil
	case err != nil:
		return domain.TrackedUser{}, false, fmt.Errorf("поиск %d: %w", id, err)
	}
	return u, true, nil
}

func (s *Service) send(ctx context.Context, msg domain.OutgoingMessage) (domain.SentMessage, error) {
	var sent domain.SentMessage
	err := retry.Do(
		func() error {
			var err error
			sent, err = s.sender.Send(ctx, msg)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.cfg.MaxAttempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.DelayType(func(n uint, err error, cfg *retry.Config) time.Duration {
			if d, ok := telegram.RetryAfter(err); ok {
				return d
			}
			return retry.FixedDelay(n, err, cfg)
		}),
		retry.LastErrorOnly(true),
	)
	return sent, err
}

func prepareBody(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	body := telegram.EscapeMarkdownV2(message)
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return "", ErrMessageTooLong
	}
	return body, nil
}
