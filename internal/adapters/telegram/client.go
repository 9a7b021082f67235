package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
)

// Client реализует domain.Messenger поверх Bot API.
type Client struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewClient создаёт клиента.
func NewClient(bot *tgbotapi.BotAPI, log zerolog.Logger) *Client {
	return &Client{bot: bot, log: log}
}

var unescapeMarkdown = regexp.MustCompile(`\\(.)`)

// Send отправляет сообщение. Если Telegram не смог разобрать MarkdownV2,
// сообщение уходит повторно обычным текстом.
func (c *Client) Send(ctx context.Context, msg domain.OutgoingMessage) (domain.SentMessage, error) {
	if err := ctx.Err(); err != nil {
		return domain.SentMessage{}, err
	}
	cfg := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if msg.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdownV2
	}
	cfg.ReplyToMessageID = msg.ReplyTo
	cfg.AllowSendingWithoutReply = true
	cfg.DisableNotification = msg.DisableNotification
	cfg.DisableWebPagePreview = true

	sent, err := c.send(cfg)
	if err != nil && msg.Markdown && isParseError(err) {
		c.log.Warn().Err(err).Int64("chat", msg.ChatID).Msg("telegram: MarkdownV2 не принят, отправляем текстом")
		cfg.ParseMode = ""
		cfg.Text = unescapeMarkdown.ReplaceAllString(msg.Text, "$1")
		sent, err = c.send(cfg)
	}
	if err != nil {
		metrics.BotSendErrors.Inc()
		return domain.SentMessage{}, fmt.Errorf("%w: send message: %w", domain.ErrDelivery, err)
	}
	return domain.SentMessage{ChatID: sent.Chat.ID, MessageID: sent.MessageID}, nil
}

func (c *Client) send(cfg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	start := time.Now()
	sent, err := c.bot.Send(cfg)
	metrics.ObserveNetworkRequest("telegram_bot", "send_message", chatTarget(cfg.ChatID), start, err)
	return sent, err
}

// Pin закрепляет сообщение.
func (c *Client) Pin(ctx context.Context, chatID int64, messageID int, notify bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	_, err := c.bot.Request(tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: !notify,
	})
	metrics.ObserveNetworkRequest("telegram_bot", "pin_message", chatTarget(chatID), start, err)
	if err != nil {
		return fmt.Errorf("%w: pin message: %w", domain.ErrDelivery, err)
	}
	return nil
}

// Restrict ограничивает или возвращает право писать. Нулевой until означает бессрочно.
func (c *Client) Restrict(ctx context.Context, chatID, userID int64, until time.Time, canSend bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       canSend,
			CanSendMediaMessages:  canSend,
			CanSendPolls:          canSend,
			CanSendOtherMessages:  canSend,
			CanAddWebPagePreviews: canSend,
			CanInviteUsers:        canSend,
		},
	}
	if !until.IsZero() {
		cfg.UntilDate = until.Unix()
	}
	start := time.Now()
	_, err := c.bot.Request(cfg)
	metrics.ObserveNetworkRequest("telegram_bot", "restrict_member", chatTarget(chatID), start, err)
	if err != nil {
		return fmt.Errorf("%w: restrict member: %w", domain.ErrDelivery, err)
	}
	return nil
}

// ChatAdministrators возвращает администраторов чата.
func (c *Client) ChatAdministrators(ctx context.Context, chatID int64) ([]domain.ChatMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	admins, err := c.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	metrics.ObserveNetworkRequest("telegram_bot", "get_chat_administrators", chatTarget(chatID), start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: chat administrators: %w", domain.ErrDelivery, err)
	}
	out := make([]domain.ChatMember, 0, len(admins))
	for _, m := range admins {
		if m.User == nil {
			continue
		}
		out = append(out, MemberFromAPI(m))
	}
	return out, nil
}

// MemberStatus возвращает статус пользователя в чате.
func (c *Client) MemberStatus(ctx context.Context, chatID, userID int64) (domain.MemberStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start := time.Now()
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	metrics.ObserveNetworkRequest("telegram_bot", "get_chat_member", chatTarget(chatID), start, err)
	if err != nil {
		return "", fmt.Errorf("%w: chat member: %w", domain.ErrDelivery, err)
	}
	return domain.ParseMemberStatus(member.Status), nil
}

// MemberFromAPI переводит участника Bot API в доменную модель.
func MemberFromAPI(m tgbotapi.ChatMember) domain.ChatMember {
	out := domain.ChatMember{Status: domain.ParseMemberStatus(m.Status)}
	if m.User != nil {
		out.UserID = m.User.ID
		out.Username = m.User.UserName
		out.FirstName = m.User.FirstName
		out.LastName = m.User.LastName
		out.IsBot = m.User.IsBot
	}
	return out
}

// RetryAfter извлекает из ошибки Telegram рекомендованную паузу.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	}
	return 0, false
}

func isParseError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "can't parse entities")
}

func chatTarget(chatID int64) string {
	if chatID < 0 {
		return "group"
	}
	if chatID == 0 {
		return "unknown"
	}
	return "private"
}
