package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"nukem-bot/internal/adapters/telegram"
	"nukem-bot/internal/domain"
	"nukem-bot/internal/usecase/broadcast"
)

// listUsersPage — сколько участников в одной таблице /list_users.
const listUsersPage = 40

var esc = telegram.EscapeMarkdownV2

func (h *Handler) cmdStart(ctx context.Context, req *request) error {
	h.replyMarkdown(ctx, req, startText)
	return nil
}

func (h *Handler) cmdHelp(ctx context.Context, req *request) error {
	h.replyMarkdown(ctx, req, helpText())
	return nil
}

func (h *Handler) cmdInfo(ctx context.Context, req *request) error {
	text, ok := h.Content.Info(req.args)
	if !ok {
		h.replyMarkdown(ctx, req, fmt.Sprintf("❓ Don't have intel on `%s`\\. Try one of these, maggot: %s",
			telegram.EscapeCode(req.args), esc(strings.Join(h.Content.Topics(), ", "))))
		return nil
	}
	h.replyText(ctx, req, text)
	return nil
}

func (h *Handler) cmdQuote(ctx context.Context, req *request) error {
	h.replyMarkdown(ctx, req, "🧠 "+esc(h.Content.Quote())+" 😎")
	return nil
}

func (h *Handler) cmdRate(ctx context.Context, req *request) error {
	if req.args == "" {
		h.replyMarkdown(ctx, req, "❓ Whatcha do\\? Describe your play, hotshot\\! `/rate_my_play <your glorious moment>`")
		return nil
	}
	rating, reaction := h.Content.Rating()
	h.replyMarkdown(ctx, req, "⭐ So you think you're a badass, huh\\? Let's see\\.\\.\\.\n"+
		"You said: \"_"+esc(req.args)+"_\"\n\n"+
		"🤖 The Duke rates your play: *"+esc(rating.Text)+"*\\!\n"+
		esc(reaction)+" 😎")
	return nil
}

func (h *Handler) cmdAlienScan(ctx context.Context, req *request) error {
	h.replyMarkdown(ctx, req, "👽 *Initiating Alien Scan\\.\\.\\.* 👀\n\n"+esc(h.Content.AlienScan()))
	return nil
}

func (h *Handler) cmdArsenal(ctx context.Context, req *request) error {
	if req.args != "" {
		w, ok := h.Content.Weapon(req.args)
		if !ok {
			h.replyMarkdown(ctx, req, fmt.Sprintf("❓ Ain't got no weapon called `%s` in my stash\\. Try `/arsenal` to see what I got\\.", telegram.EscapeCode(req.args)))
			return nil
		}
		h.replyMarkdown(ctx, req, w.Emoji+" *"+esc(strings.ToUpper(w.Name))+"* 🔥\n_\""+esc(w.Line)+"\"_")
		return nil
	}
	var b strings.Builder
	b.WriteString("🛠️ *DUKE'S ARSENAL \\- PICK YOUR POISON:* ☢️\n\n")
	for _, w := range h.Content.Arsenal() {
		b.WriteString(w.Emoji + " `" + w.Key + "`: " + esc(w.Name) + "\n")
	}
	b.WriteString("\nType `/arsenal <weapon_name>` for more intel on a specific piece of hardware\\.")
	h.replyMarkdown(ctx, req, b.String())
	return nil
}

func (h *Handler) cmdMentionAll(ctx context.Context, req *request) error {
	if req.args == "" {
		h.replyMarkdown(ctx, req, "📢 Gimme somethin' to yell, admin\\! `/mentionall <message>`")
		return nil
	}
	res, err := h.Broadcast.BroadcastAll(ctx, req.chatID(), req.args)
	switch {
	case errors.Is(err, broadcast.ErrMessageTooLong):
		h.replyText(ctx, req, "📜 That speech is too long, even for me. Cut it down, admin.")
		return nil
	case err != nil:
		return err
	}
	h.Stats.BroadcastSent(res.Sent)
	if res.Recipients == 0 {
		h.replyText(ctx, req, "👻 Nobody on my list in this chat yet. Get these maggots talkin' first!")
		return nil
	}
	if len(res.Failures) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "⚠️ Broadcast hit turbulence: %d of %d parts failed.\n", len(res.Failures), res.Parts)
		for _, f := range res.Failures {
			fmt.Fprintf(&b, "Part %d (%d targets): %v\n", f.Part, f.Recipients, f.Err)
		}
		h.replyText(ctx, req, b.String())
	}
	return nil
}

func (h *Handler) cmdMention(ctx context.Context, req *request) error {
	handles, message, err := broadcast.ParseMentionArgs(req.args)
	if err != nil {
		h.replyMarkdown(ctx, req, "🎯 Who and what, slick? `/mention @user1 @user2 <message>`")
		return nil
	}
	res, err := h.Broadcast.BroadcastTo(ctx, req.chatID(), handles, message)
	switch {
	case errors.Is(err, broadcast.ErrMessageTooLong):
		h.replyText(ctx, req, "📜 That speech is too long, even for me. Cut it down, admin.")
		return nil
	case err != nil:
		return err
	}
	if len(res.Mentioned) == 0 {
		h.replyText(ctx, req, "🤷 Couldn't find anyone from that list. They gotta chat here before I can tag 'em.")
		return nil
	}
	h.Stats.BroadcastSent(1)
	if len(res.NotFound) > 0 {
		h.replyText(ctx, req, "👀 Couldn't find: "+strings.Join(res.NotFound, ", "))
	}
	return nil
}

func (h *Handler) cmdPin(ctx context.Context, req *request) error {
	if reply := req.msg.ReplyToMessage; reply != nil {
		if err := h.Messenger.Pin(ctx, req.chatID(), reply.MessageID, false); err != nil {
			h.log.Warn().Err(err).Int64("chat", req.chatID()).Msg("bot: не удалось закрепить сообщение")
			h.replyText(ctx, req, "❌ Couldn't pin that. Do I have pin rights here?")
			return nil
		}
		h.replyText(ctx, req, "📌 Pinned it. That message ain't going anywhere.")
		return nil
	}
	if req.args == "" {
		h.replyMarkdown(ctx, req, "🤔 Still don't know what to pin, slick\\. `/pin_nukem <message>` or reply to a message\\.")
		return nil
	}
	sent, err := h.Messenger.Send(ctx, domain.OutgoingMessage{ChatID: req.chatID(), Text: "📌 " + esc(req.args), Markdown: true})
	if err != nil {
		return err
	}
	if err := h.Messenger.Pin(ctx, req.chatID(), sent.MessageID, true); err != nil {
		h.log.Warn().Err(err).Int64("chat", req.chatID()).Msg("bot: не удалось закрепить сообщение")
		h.replyText(ctx, req, "❌ Posted it, but couldn't pin it. Do I have pin rights here?")
	}
	return nil
}

func (h *Handler) cmdListUsers(ctx context.Context, req *request) error {
	users, err := h.Tracking.ListUsers(ctx, req.chatID())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		h.replyText(ctx, req, "📜 My list is empty. Nobody's said a word yet.")
		return nil
	}
	pages := lo.Chunk(users, listUsersPage)
	for i, page := range pages {
		header := fmt.Sprintf("📜 *Tracked users: %d*", len(users))
		if len(pages) > 1 {
			header += esc(fmt.Sprintf(" (page %d/%d)", i+1, len(pages)))
		}
		h.replyMarkdown(ctx, req, header+"\n```\n"+telegram.EscapeCode(renderUsers(page, i*listUsersPage))+"```")
	}
	return nil
}

func renderUsers(users []domain.TrackedUser, offset int) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"#", "Name", "ID", "Karma", "Msgs", "Status"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for i, u := range users {
		status := string(u.Status)
		if u.IsChatAdmin {
			status += " 👑"
		}
		table.Append([]string{
			strconv.Itoa(offset + i + 1),
			u.DisplayName(),
			strconv.FormatInt(u.UserID, 10),
			strconv.Itoa(u.Karma),
			strconv.FormatInt(u.MessageCount, 10),
			status,
		})
	}
	table.Render()
	return buf.String()
}

func (h *Handler) cmdSyncUsers(ctx context.Context, req *request) error {
	var b strings.Builder
	n, err := h.Admins.Resync()
	if err != nil {
		h.log.Warn().Err(err).Msg("bot: ресинк админов не удался")
		b.WriteString("⚠️ Admin list reload failed, keeping the old brass: " + err.Error() + "\n")
	} else {
		h.log.Info().Ints64("admins", h.Admins.Snapshot()).Msg("bot: список админов перечитан")
		fmt.Fprintf(&b, "🔄 Admin list reloaded: %d global admins.\n", n)
	}

	report, err := h.Tracking.SyncChatAdmins(ctx, req.chatID())
	if err != nil {
		h.log.Warn().Err(err).Int64("chat", req.chatID()).Msg("bot: синхронизация админов чата не удалась")
		b.WriteString("💾❌ Couldn't sync the chat brass. Telegram or the database is acting up.")
		h.replyText(ctx, req, b.String())
		return nil
	}
	fmt.Fprintf(&b, "👑 Chat admins synced: %d total, %d new, %d updated, %d demoted, %d failed.",
		report.Total, len(report.New), len(report.Updated), len(report.Demoted), len(report.Failed))
	if len(report.New) > 0 {
		b.WriteString("\nNew: " + strings.Join(report.New, ", "))
	}
	if len(report.Failed) > 0 {
		b.WriteString("\nFailed: " + strings.Join(report.Failed, ", "))
	}
	h.replyText(ctx, req, b.String())
	return nil
}
