package broadcast

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrNoTargets — в аргументах нет ни одного @username или id.
	ErrNoTargets = errors.New("не указаны получатели")
	// ErrEmptyMessage — пустой текст рассылки.
	ErrEmptyMessage = errors.New("пустое сообщение")
)

// ParseMentionArgs отделяет ведущие цели (@username или числовой id) от текста сообщения.
// Переносы строк в тексте сохраняются.
func ParseMentionArgs(args string) ([]string, string, error) {
	var targets []string
	rest := strings.TrimLeftFunc(args, unicode.IsSpace)
	for rest != "" {
		end := strings.IndexFunc(rest, unicode.IsSpace)
		token := rest
		if end >= 0 {
			token = rest[:end]
		}
		if !isTarget(token) {
			break
		}
		targets = append(targets, token)
		if end < 0 {
			rest = ""
			break
		}
		rest = strings.TrimLeftFunc(rest[end:], unicode.IsSpace)
	}
	if len(targets) == 0 {
		return nil, "", ErrNoTargets
	}
	message := strings.TrimSpace(rest)
	if message == "" {
		return targets, "", ErrEmptyMessage
	}
	return targets, message, nil
}

func isTarget(token string) bool {
	if strings.HasPrefix(token, "@") {
		return len(token) > 1
	}
	return isDigits(token)
}

func isDigits(s string) bool {
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
