package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nukem-bot/internal/adapters/telegram"
	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
)

type scope int

const (
	scopeAny scope = iota
	scopeGroup
)

type route struct {
	run       func(ctx context.Context, req *request) error
	adminOnly bool
	scope     scope
}

type request struct {
	msg     *tgbotapi.Message
	command string
	args    string
	group   bool
}

func (r *request) chatID() int64 { return r.msg.Chat.ID }
func (r *request) userID() int64 { return r.msg.From.ID }

func (h *Handler) buildRoutes() map[string]route {
	return map[string]route{
		"start":        {run: h.cmdStart},
		"help_nukem":   {run: h.cmdHelp},
		"info":         {run: h.cmdInfo},
		"nukem_quote":  {run: h.cmdQuote},
		"rate_my_play": {run: h.cmdRate},
		"alien_scan":   {run: h.cmdAlienScan},
		"arsenal":      {run: h.cmdArsenal},
		"mentionall":   {run: h.cmdMentionAll, adminOnly: true, scope: scopeGroup},
		"mention":      {run: h.cmdMention, adminOnly: true, scope: scopeGroup},
		"pin_nukem":    {run: h.cmdPin, adminOnly: true, scope: scopeGroup},
		"list_users":   {run: h.cmdListUsers, adminOnly: true, scope: scopeGroup},
		"sync_users":   {run: h.cmdSyncUsers, adminOnly: true, scope: scopeGroup},
		"karma":        {run: h.cmdKarma, scope: scopeGroup},
		"give_karma":   {run: h.cmdGiveKarma, adminOnly: true, scope: scopeGroup},
		"remove_karma": {run: h.cmdRemoveKarma, adminOnly: true, scope: scopeGroup},
		"leaderboard":  {run: h.cmdLeaderboard, scope: scopeGroup},
		"warn":         {run: h.cmdWarn, adminOnly: true, scope: scopeGroup},
		"unwarn":       {run: h.cmdUnwarn, adminOnly: true, scope: scopeGroup},
		"warnings":     {run: h.cmdWarnings, scope: scopeGroup},
		"mute":         {run: h.cmdMute, adminOnly: true, scope: scopeGroup},
		"unmute":       {run: h.cmdUnmute, adminOnly: true, scope: scopeGroup},
		"stats":        {run: h.cmdStats, adminOnly: true},
	}
}

// parseCommand выделяет команду и аргументы. Команды, адресованные другому боту, пропускаются.
func parseCommand(text, botUsername string) (string, string, bool) {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", "", false
	}
	token, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		token, args = text[:i], strings.TrimSpace(text[i:])
	}
	cmd := token[1:]
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		target := cmd[at+1:]
		cmd = cmd[:at]
		if botUsername != "" && !strings.EqualFold(target, botUsername) {
			return "", "", false
		}
	}
	if cmd == "" {
		return "", "", false
	}
	return strings.ToLower(cmd), args, true
}

// dispatch проводит команду через цепочку проверок: чат, лимит, кулдаун, права.
func (h *Handler) dispatch(ctx context.Context, req *request) {
	rt, ok := h.routes[req.command]
	if !ok {
		return
	}
	log := h.log.With().Str("command", req.command).Int64("chat", req.chatID()).Int64("user", req.userID()).Logger()

	if rt.scope == scopeGroup && !req.group {
		h.replyText(ctx, req, "🤖 This command only works in group chats, soldier.")
		return
	}
	globalAdmin := h.Admins.IsAdmin(req.userID())
	if !globalAdmin {
		if !h.Guard.AllowRequest(ctx, req.userID()) {
			metrics.CommandsTotal.WithLabelValues(req.command, "rate_limited").Inc()
			h.replyText(ctx, req, h.Content.SlowDown())
			return
		}
		if left := h.Guard.Cooldown(ctx, req.command, req.userID()); left > 0 {
			metrics.CommandsTotal.WithLabelValues(req.command, "cooldown").Inc()
			h.replyText(ctx, req, fmt.Sprintf("⏳ Cool your jets! /%s is still recharging. Try again in %s.", req.command, roundUp(left)))
			return
		}
	}
	if rt.adminOnly && !globalAdmin && !h.isChatAdmin(ctx, req) {
		log.Info().Msg("bot: команда отклонена, нет прав")
		h.finish(ctx, req, domain.ErrForbidden)
		return
	}

	start := time.Now()
	err := h.safeRun(ctx, rt, req)
	log.Debug().Dur("took", time.Since(start)).Err(err).Msg("bot: команда выполнена")
	h.finish(ctx, req, err)
}

func (h *Handler) safeRun(ctx context.Context, rt route, req *request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return rt.run(ctx, req)
}

// finish учитывает результат и переводит ошибку в ответ пользователю.
func (h *Handler) finish(ctx context.Context, req *request, err error) {
	metrics.ObserveCommand(req.command, err)
	h.Stats.CommandDone(req.command, err)
	if err == nil {
		return
	}
	var apiErr *tgbotapi.Error
	switch {
	case errors.Is(err, domain.ErrForbidden):
		h.replyText(ctx, req, h.Content.Rejection())
		return
	case errors.Is(err, domain.ErrNotFound):
		h.replyText(ctx, req, "🤔 Couldn't find that one on my list, soldier.")
	case errors.Is(err, domain.ErrStorage):
		h.replyText(ctx, req, "💾❌ Database is having a meltdown! Try again later, soldier.")
	case errors.Is(err, domain.ErrDelivery), errors.As(err, &apiErr):
		h.replyText(ctx, req, "👽❌ Telegram's acting up! My systems are blinking red.")
	default:
		h.replyText(ctx, req, "💀⚠️ Son of a bitch! Something went sideways. But Duke always comes back!")
	}
	h.log.Error().Err(err).Str("command", req.command).Int64("chat", req.chatID()).Int64("user", req.userID()).Msg("bot: команда завершилась ошибкой")
}

// isChatAdmin проверяет статус в чате, если это разрешено настройкой.
func (h *Handler) isChatAdmin(ctx context.Context, req *request) bool {
	if !h.AllowChatAdmins || !req.group {
		return false
	}
	status, err := h.Messenger.MemberStatus(ctx, req.chatID(), req.userID())
	if err != nil {
		h.log.Warn().Err(err).Int64("chat", req.chatID()).Int64("user", req.userID()).Msg("bot: не удалось проверить статус в чате")
		return false
	}
	return status.Privileged()
}

// isAdmin — глобальный админ или админ чата.
func (h *Handler) isAdmin(ctx context.Context, req *request) bool {
	return h.Admins.IsAdmin(req.userID()) || h.isChatAdmin(ctx, req)
}

// replyText экранирует обычный текст и отвечает на сообщение.
func (h *Handler) replyText(ctx context.Context, req *request, text string) {
	h.replyMarkdown(ctx, req, telegram.EscapeMarkdownV2(text))
}

// replyMarkdown отвечает готовым MarkdownV2, разбивая длинный текст.
func (h *Handler) replyMarkdown(ctx context.Context, req *request, text string) {
	for i, part := range telegram.SplitMessage(text) {
		msg := domain.OutgoingMessage{ChatID: req.chatID(), Text: part, Markdown: true}
		if i == 0 {
			msg.ReplyTo = req.msg.MessageID
		}
		if _, err := h.Messenger.Send(ctx, msg); err != nil {
			h.log.Error().Err(err).Int64("chat", req.chatID()).Msg("bot: не удалось отправить ответ")
			return
		}
	}
}

func roundUp(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	return strconv.FormatInt(secs, 10) + "s"
}
