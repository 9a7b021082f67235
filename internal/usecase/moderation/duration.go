package moderation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadDuration — длительность не в формате Ns|Nm|Nh|Nd или 0.
var ErrBadDuration = errors.New("некорректная длительность")

// MinDuration и MaxDuration — за этими границами Telegram считает ограничение бессрочным.
const (
	MinDuration = 30 * time.Second
	MaxDuration = 366 * 24 * time.Hour
)

var units = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseDuration разбирает длительность мьюта. "0" означает бессрочно и возвращает 0.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "0" {
		return 0, nil
	}
	if len(raw) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, raw)
	}
	unit, ok := units[raw[len(raw)-1]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, raw)
	}
	n, err := strconv.Atoi(raw[:len(raw)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, raw)
	}
	d := time.Duration(n) * unit
	if d > MaxDuration || d/unit != time.Duration(n) {
		return 0, fmt.Errorf("%w: %q больше %s", ErrBadDuration, raw, MaxDuration)
	}
	if d < MinDuration {
		return 0, fmt.Errorf("%w: %q меньше %s", ErrBadDuration, raw, MinDuration)
	}
	return d, nil
}

// FormatDuration печатает длительность в крупнейших целых единицах.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "forever"
	}
	switch {
	case d%(24*time.Hour) == 0:
		return strconv.FormatInt(int64(d/(24*time.Hour)), 10) + "d"
	case d%time.Hour == 0:
		return strconv.FormatInt(int64(d/time.Hour), 10) + "h"
	case d%time.Minute == 0:
		return strconv.FormatInt(int64(d/time.Minute), 10) + "m"
	default:
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	}
}
