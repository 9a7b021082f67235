package telegram

import (
	"strconv"
	"strings"
)

var markdownV2Escaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

var codeEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`")

// EscapeMarkdownV2 экранирует текст для parse_mode=MarkdownV2.
func EscapeMarkdownV2(text string) string {
	return markdownV2Escaper.Replace(text)
}

// EscapeCode экранирует текст внутри блоков ``` и `.
func EscapeCode(text string) string {
	return codeEscaper.Replace(text)
}

// Mention строит ссылку-упоминание пользователя. Имя экранируется.
func Mention(name string, userID int64) string {
	return "[" + EscapeMarkdownV2(name) + "](" + UserLink(userID) + ")"
}

// SilentMention упоминает пользователя невидимым символом.
func SilentMention(userID int64) string {
	return "[\u200b](" + UserLink(userID) + ")"
}

// UserLink возвращает tg:// ссылку на пользователя.
func UserLink(userID int64) string {
	return "tg://user?id=" + strconv.FormatInt(userID, 10)
}
