package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"nukem-bot/internal/adapters/telegram"
	"nukem-bot/internal/domain"
	"nukem-bot/internal/usecase/karma"
	"nukem-bot/internal/usecase/moderation"
	"nukem-bot/internal/usecase/stats"
)

var errNoTarget = errors.New("не указана цель")

// resolveTarget находит цель команды: @username, числовой id или автор сообщения, на которое ответили.
// Возвращает цель и оставшиеся аргументы.
func (h *Handler) resolveTarget(ctx context.Context, req *request) (domain.TrackedUser, string, error) {
	token, rest := splitFirst(req.args)
	switch {
	case strings.HasPrefix(token, "@") && len(token) > 1:
		u, err := h.Tracking.FindByUsername(ctx, req.chatID(), token)
		if err != nil {
			return domain.TrackedUser{}, rest, err
		}
		return u, rest, nil
	case isNumeric(token):
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return domain.TrackedUser{}, rest, errNoTarget
		}
		u, err := h.Tracking.GetUser(ctx, req.chatID(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TrackedUser{ChatID: req.chatID(), UserID: id}, rest, nil
		}
		return u, rest, err
	}
	reply := req.msg.ReplyToMessage
	if reply == nil || reply.From == nil {
		return domain.TrackedUser{}, req.args, errNoTarget
	}
	u, _, err := h.Tracking.RecordSighting(ctx, domain.Sighting{
		ChatID:    req.chatID(),
		UserID:    reply.From.ID,
		Username:  reply.From.UserName,
		FirstName: reply.From.FirstName,
		LastName:  reply.From.LastName,
		IsBot:     reply.From.IsBot,
		Kind:      domain.SightingMembership,
		SeenAt:    messageTime(reply.Date),
	})
	if err != nil {
		return domain.TrackedUser{}, req.args, err
	}
	return u, req.args, nil
}

func splitFirst(args string) (string, string) {
	args = strings.TrimSpace(args)
	i := strings.IndexFunc(args, unicode.IsSpace)
	if i < 0 {
		return args, ""
	}
	return args[:i], strings.TrimSpace(args[i:])
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func senderName(req *request) string {
	f := req.msg.From
	return domain.DisplayName(f.ID, f.FirstName, f.LastName, f.UserName)
}

func (h *Handler) targetOrUsage(ctx context.Context, req *request, usage string) (domain.TrackedUser, string, bool, error) {
	target, rest, err := h.resolveTarget(ctx, req)
	switch {
	case errors.Is(err, errNoTarget):
		h.replyMarkdown(ctx, req, "🎯 Who's the target, slick? `"+usage+"` or reply to their message\\.")
		return target, rest, false, nil
	case errors.Is(err, domain.ErrNotFound):
		h.replyText(ctx, req, "🤔 Never heard of that one. They gotta chat here first.")
		return target, rest, false, nil
	case err != nil:
		return target, rest, false, err
	}
	return target, rest, true, nil
}

func (h *Handler) cmdKarma(ctx context.Context, req *request) error {
	userID := req.userID()
	if req.args != "" || req.msg.ReplyToMessage != nil {
		target, _, ok, err := h.targetOrUsage(ctx, req, "/karma @user")
		if !ok {
			return err
		}
		userID = target.UserID
	}
	u, err := h.Karma.Show(ctx, req.chatID(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		h.replyText(ctx, req, "⭐ No karma on record for that one. Zero. Zilch.")
		return nil
	}
	if err != nil {
		return err
	}
	h.replyText(ctx, req, fmt.Sprintf("⭐ %s has %d karma.", u.DisplayName(), u.Karma))
	return nil
}

func (h *Handler) cmdGiveKarma(ctx context.Context, req *request) error {
	return h.adjustKarma(ctx, req, true)
}

func (h *Handler) cmdRemoveKarma(ctx context.Context, req *request) error {
	return h.adjustKarma(ctx, req, false)
}

func (h *Handler) adjustKarma(ctx context.Context, req *request, give bool) error {
	usage := "/remove_karma @user [reason]"
	if give {
		usage = "/give_karma @user [reason]"
	}
	target, reason, ok, err := h.targetOrUsage(ctx, req, usage)
	if !ok {
		return err
	}
	var total int
	if give {
		total, err = h.Karma.Give(ctx, req.chatID(), req.userID(), target.UserID)
	} else {
		total, err = h.Karma.Take(ctx, req.chatID(), req.userID(), target.UserID)
	}
	switch {
	case errors.Is(err, karma.ErrSelfTarget):
		h.replyText(ctx, req, "🤦‍♂️ Nice try. You can't pin medals on your own chest.")
		return nil
	case errors.Is(err, domain.ErrNotFound):
		h.replyText(ctx, req, "🤔 Never heard of that one. They gotta chat here first.")
		return nil
	case err != nil:
		return err
	}
	text := fmt.Sprintf("📈 +1 karma to %s. Total: %d.", target.DisplayName(), total)
	if !give {
		text = fmt.Sprintf("📉 -1 karma from %s. Total: %d.", target.DisplayName(), total)
	}
	if reason != "" {
		text += " Reason: " + reason
	}
	h.replyText(ctx, req, text)
	return nil
}

func (h *Handler) cmdLeaderboard(ctx context.Context, req *request) error {
	board, err := karma.ParseBoard(req.args)
	if err != nil {
		h.replyMarkdown(ctx, req, "🏆 Pick a board: `/leaderboard karma` or `/leaderboard activity`")
		return nil
	}
	top, err := h.Karma.Leaderboard(ctx, req.chatID(), board)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		h.replyText(ctx, req, "🏆 The leaderboard is empty. Somebody do somethin' worth rememberin'!")
		return nil
	}
	var b strings.Builder
	if board == domain.LeaderboardActivity {
		b.WriteString("🏆 Top talkers:\n")
	} else {
		b.WriteString("🏆 Karma leaderboard:\n")
	}
	for i, u := range top {
		score := strconv.Itoa(u.Karma)
		if board == domain.LeaderboardActivity {
			score = strconv.FormatInt(u.MessageCount, 10) + " msgs"
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, u.DisplayName(), score)
	}
	h.replyText(ctx, req, b.String())
	return nil
}

func (h *Handler) cmdWarn(ctx context.Context, req *request) error {
	target, reason, ok, err := h.targetOrUsage(ctx, req, "/warn @user [reason]")
	if !ok {
		return err
	}
	w, active, err := h.Moderation.Warn(ctx, moderation.Action{
		ChatID:    req.chatID(),
		TargetID:  target.UserID,
		ActorID:   req.userID(),
		ActorName: senderName(req),
		Reason:    reason,
	})
	if errors.Is(err, moderation.ErrSelfTarget) {
		h.replyText(ctx, req, "🤦‍♂️ Warning yourself? Get a grip, soldier.")
		return nil
	}
	if err != nil {
		return err
	}
	h.replyText(ctx, req, fmt.Sprintf("⚠️ %s has been warned. Reason: %s. Active warnings: %d.", target.DisplayName(), w.Reason, active))

	chatTitle := req.msg.Chat.Title
	if chatTitle == "" {
		chatTitle = "the chat"
	}
	dm := fmt.Sprintf("⚠️ You got a warning in %s. Reason: %s. Active warnings: %d. Shape up, soldier.", chatTitle, w.Reason, active)
	if _, err := h.Messenger.Send(ctx, domain.OutgoingMessage{ChatID: target.UserID, Text: esc(dm), Markdown: true}); err != nil {
		h.log.Info().Err(err).Int64("user", target.UserID).Msg("bot: не удалось отправить предупреждение в личку")
		h.replyText(ctx, req, "📭 Couldn't DM them. They probably never started me.")
	}
	return nil
}

func (h *Handler) cmdUnwarn(ctx context.Context, req *request) error {
	target, _, ok, err := h.targetOrUsage(ctx, req, "/unwarn @user")
	if !ok {
		return err
	}
	_, left, err := h.Moderation.Unwarn(ctx, req.chatID(), target.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		h.replyText(ctx, req, fmt.Sprintf("✅ %s has a clean record already.", target.DisplayName()))
		return nil
	}
	if err != nil {
		return err
	}
	h.replyText(ctx, req, fmt.Sprintf("✅ Removed the latest warning from %s. Active warnings: %d.", target.DisplayName(), left))
	return nil
}

func (h *Handler) cmdWarnings(ctx context.Context, req *request) error {
	targetID := req.userID()
	name := senderName(req)
	if req.args != "" || req.msg.ReplyToMessage != nil {
		target, _, ok, err := h.targetOrUsage(ctx, req, "/warnings @user")
		if !ok {
			return err
		}
		if target.UserID != req.userID() && !h.isAdmin(ctx, req) {
			return domain.ErrForbidden
		}
		targetID, name = target.UserID, target.DisplayName()
	}
	list, err := h.Moderation.Warnings(ctx, req.chatID(), targetID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		h.replyText(ctx, req, fmt.Sprintf("✅ %s has a clean record.", name))
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📜 Rap sheet for %s: %d active.\n", name, len(list))
	for i, w := range list {
		fmt.Fprintf(&b, "%d. %s (by %s, %s)", i+1, w.Reason, w.IssuedByName, w.CreatedAt.Format("2006-01-02"))
		if w.ExpiresAt != nil {
			fmt.Fprintf(&b, ", expires %s", w.ExpiresAt.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	h.replyText(ctx, req, b.String())
	return nil
}

func (h *Handler) cmdMute(ctx context.Context, req *request) error {
	target, rest, ok, err := h.targetOrUsage(ctx, req, "/mute @user <duration> [reason]")
	if !ok {
		return err
	}
	rawDuration, reason := splitFirst(rest)
	duration, err := moderation.ParseDuration(rawDuration)
	if err != nil {
		h.replyMarkdown(ctx, req, "⏱️ Bad duration, slick\\. Use `30s`, `10m`, `1h`, `1d` or `0` for forever\\.")
		return nil
	}
	m, err := h.Moderation.Mute(ctx, moderation.Action{
		ChatID:    req.chatID(),
		TargetID:  target.UserID,
		ActorID:   req.userID(),
		ActorName: senderName(req),
		Reason:    reason,
	}, duration)
	if errors.Is(err, moderation.ErrSelfTarget) {
		h.replyText(ctx, req, "🤦‍♂️ Muting yourself? Just stop typing, genius.")
		return nil
	}
	if err != nil {
		return err
	}
	until := "forever"
	if !m.Permanent() {
		until = moderation.FormatDuration(duration) + " (until " + m.Until.Format(time.RFC822) + ")"
	}
	h.replyText(ctx, req, fmt.Sprintf("⛔ %s has been muted for %s. Reason: %s", target.DisplayName(), until, m.Reason))
	return nil
}

func (h *Handler) cmdUnmute(ctx context.Context, req *request) error {
	target, _, ok, err := h.targetOrUsage(ctx, req, "/unmute @user")
	if !ok {
		return err
	}
	if err := h.Moderation.Unmute(ctx, req.chatID(), target.UserID); err != nil {
		return err
	}
	h.replyText(ctx, req, fmt.Sprintf("💬 %s can talk again. Don't make me regret it.", target.DisplayName()))
	return nil
}

func (h *Handler) cmdStats(ctx context.Context, req *request) error {
	tracked := 0
	if req.group {
		users, err := h.Tracking.ListUsers(ctx, req.chatID())
		if err != nil {
			return err
		}
		tracked = len(users)
	}
	table := stats.Render(h.Stats.Snapshot(), tracked)
	h.replyMarkdown(ctx, req, "📈 *NUKEM Bot stats*\n```\n"+telegram.EscapeCode(table)+"```")
	return nil
}
