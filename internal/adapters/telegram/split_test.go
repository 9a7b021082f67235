package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessageRespectsLimit(t *testing.T) {
	var builder strings.Builder
	builder.WriteString(strings.Repeat("a", 3000))
	builder.WriteString("\n\n")
	builder.WriteString(strings.Repeat("b", 2000))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("c", 500))

	parts := SplitMessage(builder.String())
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	for i, part := range parts {
		if length := len([]rune(part)); length > MessageLimit {
			t.Fatalf("part %d exceeds limit: %d", i, length)
		}
	}
	if parts[0] != strings.Repeat("a", 3000) {
		t.Fatalf("unexpected content in first part")
	}
	if !strings.HasPrefix(parts[1], "b") || !strings.HasSuffix(parts[1], strings.Repeat("c", 500)) {
		t.Fatalf("unexpected second part boundaries")
	}
}

func TestSplitMessageShortText(t *testing.T) {
	parts := SplitMessage("hello world")
	if len(parts) != 1 || parts[0] != "hello world" {
		t.Fatalf("unexpected parts: %q", parts)
	}
}

func TestSplitMessageEmpty(t *testing.T) {
	if parts := SplitMessage("   \n  "); len(parts) != 0 {
		t.Fatalf("expected no parts for empty input, got %d", len(parts))
	}
}

func TestSplitMessageKeepsEscapes(t *testing.T) {
	// без переводов строк разрез попал бы между "\" и "!"
	text := strings.Repeat("a", 9) + `\!` + strings.Repeat("b", 5)
	parts := SplitMessageLimit(text, 10)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %q", parts)
	}
	if parts[0] != strings.Repeat("a", 9) {
		t.Fatalf("escape left dangling in first part: %q", parts[0])
	}
	if !strings.HasPrefix(parts[1], `\!`) {
		t.Fatalf("second part should start with escape: %q", parts[1])
	}
}
