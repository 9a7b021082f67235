package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"nukem-bot/internal/adapters/keywords"
	"nukem-bot/internal/adapters/telegram"
	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
	"nukem-bot/internal/usecase/admins"
	"nukem-bot/internal/usecase/broadcast"
	"nukem-bot/internal/usecase/content"
	"nukem-bot/internal/usecase/karma"
	"nukem-bot/internal/usecase/moderation"
	"nukem-bot/internal/usecase/stats"
	"nukem-bot/internal/usecase/throttle"
	"nukem-bot/internal/usecase/tracking"
)

// Deps — зависимости обработчика.
type Deps struct {
	Messenger  domain.Messenger
	Tracking   *tracking.Service
	Admins     *admins.Registry
	Broadcast  *broadcast.Service
	Content    *content.Provider
	Karma      *karma.Service
	Moderation *moderation.Service
	Stats      *stats.Tracker
	Guard      *throttle.Guard
	// Keywords может быть nil, тогда бот не реагирует на ключевые слова.
	Keywords        *keywords.Matcher
	AllowChatAdmins bool
	BotUsername     string
}

// Handler разбирает апдейты Telegram и выполняет команды.
type Handler struct {
	Deps
	log    zerolog.Logger
	routes map[string]route
}

// NewHandler создаёт обработчик.
func NewHandler(deps Deps, log zerolog.Logger) *Handler {
	h := &Handler{Deps: deps, log: log}
	h.routes = h.buildRoutes()
	return h
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		h.handleMessage(ctx, upd.Message)
	case upd.ChatMember != nil:
		metrics.UpdatesTotal.WithLabelValues("chat_member").Inc()
		h.handleMemberUpdate(ctx, upd.ChatMember)
	case upd.MyChatMember != nil:
		metrics.UpdatesTotal.WithLabelValues("my_chat_member").Inc()
		h.log.Info().Int64("chat", upd.MyChatMember.Chat.ID).Str("status", upd.MyChatMember.NewChatMember.Status).Msg("bot: статус бота в чате изменился")
	default:
		metrics.UpdatesTotal.WithLabelValues("other").Inc()
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	h.Stats.MessageSeen()
	group := isGroup(msg.Chat)
	if group {
		h.trackSender(ctx, msg)
		h.trackMembership(ctx, msg)
	}

	if cmd, args, ok := parseCommand(msg.Text, h.BotUsername); ok {
		h.dispatch(ctx, &request{msg: msg, command: cmd, args: args, group: group})
		return
	}
	if msg.Text != "" {
		h.reactToKeywords(ctx, msg)
	}
}

func (h *Handler) trackSender(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.IsBot {
		return
	}
	_, created, err := h.Tracking.RecordSighting(ctx, domain.Sighting{
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		IsBot:     msg.From.IsBot,
		Kind:      domain.SightingMessage,
		SeenAt:    messageTime(msg.Date),
	})
	if err != nil {
		h.log.Error().Err(err).Int64("chat", msg.Chat.ID).Int64("user", msg.From.ID).Msg("bot: не удалось учесть участника")
		return
	}
	if created {
		h.log.Debug().Int64("chat", msg.Chat.ID).Int64("user", msg.From.ID).Msg("bot: новый участник в списке")
	}
}

func (h *Handler) trackMembership(ctx context.Context, msg *tgbotapi.Message) {
	at := messageTime(msg.Date)
	for _, u := range msg.NewChatMembers {
		_, _, err := h.Tracking.RecordSighting(ctx, domain.Sighting{
			ChatID:    msg.Chat.ID,
			UserID:    u.ID,
			Username:  u.UserName,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			IsBot:     u.IsBot,
			Kind:      domain.SightingMembership,
			Status:    domain.StatusMember,
			SeenAt:    at,
		})
		if err != nil {
			h.log.Error().Err(err).Int64("chat", msg.Chat.ID).Int64("user", u.ID).Msg("bot: не удалось учесть нового участника")
		}
	}
	if u := msg.LeftChatMember; u != nil {
		member := domain.ChatMember{UserID: u.ID, Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName, IsBot: u.IsBot, Status: domain.StatusLeft}
		if err := h.Tracking.HandleDeparture(ctx, msg.Chat.ID, member, at); err != nil {
			h.log.Error().Err(err).Int64("chat", msg.Chat.ID).Int64("user", u.ID).Msg("bot: не удалось обработать уход участника")
		}
	}
}

func (h *Handler) handleMemberUpdate(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	if upd.NewChatMember.User == nil {
		return
	}
	member := telegram.MemberFromAPI(upd.NewChatMember)
	at := messageTime(upd.Date)
	if !member.Status.Present() {
		if err := h.Tracking.HandleDeparture(ctx, upd.Chat.ID, member, at); err != nil {
			h.log.Error().Err(err).Int64("chat", upd.Chat.ID).Int64("user", member.UserID).Msg("bot: не удалось обработать уход участника")
		}
		return
	}
	privileged := member.Status.Privileged()
	_, _, err := h.Tracking.RecordSighting(ctx, domain.Sighting{
		ChatID:      upd.Chat.ID,
		UserID:      member.UserID,
		Username:    member.Username,
		FirstName:   member.FirstName,
		LastName:    member.LastName,
		IsBot:       member.IsBot,
		Kind:        domain.SightingMembership,
		Status:      member.Status,
		IsChatAdmin: &privileged,
		SeenAt:      at,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("chat", upd.Chat.ID).Int64("user", member.UserID).Msg("bot: не удалось обновить статус участника")
	}
}

func (h *Handler) reactToKeywords(ctx context.Context, msg *tgbotapi.Message) {
	if h.Keywords == nil || msg.From.IsBot {
		return
	}
	match, ok := h.Keywords.Match(msg.Text)
	if !ok || !h.Guard.AllowKeyword(ctx, msg.Chat.ID, string(match.Reaction)) {
		return
	}
	var text string
	switch match.Reaction {
	case keywords.ReactQuote:
		text = h.Content.Quote()
	case keywords.ReactAlienScan:
		text = "👽 Alien chatter detected... 👀\n\n" + h.Content.AlienScan()
	case keywords.ReactOutOfGum:
		text = content.OutOfGum
	case keywords.ReactHype:
		text = "😎 Somebody said my name? " + h.Content.Cheer()
	default:
		return
	}
	req := &request{msg: msg, group: isGroup(msg.Chat)}
	h.replyText(ctx, req, text)
}

func isGroup(chat *tgbotapi.Chat) bool {
	return chat != nil && (chat.IsGroup() || chat.IsSuperGroup())
}

func messageTime(unix int) time.Time {
	if unix <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(int64(unix), 0).UTC()
}
