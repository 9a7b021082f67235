package telegram

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain text", want: "plain text"},
		{in: "v2.1.0!", want: `v2\.1\.0\!`},
		{in: "a_b*c", want: `a\_b\*c`},
		{in: "[x](y)", want: `\[x\]\(y\)`},
		{in: `back\slash`, want: `back\\slash`},
		{in: "~`>#+-=|{}", want: "\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}"},
	}
	for _, tt := range tests {
		if got := EscapeMarkdownV2(tt.in); got != tt.want {
			t.Fatalf("EscapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMention(t *testing.T) {
	if got := Mention("Duke N.", 42); got != `[Duke N\.](tg://user?id=42)` {
		t.Fatalf("unexpected mention: %q", got)
	}
	if got := SilentMention(7); got != "[\u200b](tg://user?id=7)" {
		t.Fatalf("unexpected silent mention: %q", got)
	}
}

func TestEscapeCode(t *testing.T) {
	if got := EscapeCode("a`b\\c"); got != "a\\`b\\\\c" {
		t.Fatalf("unexpected code escape: %q", got)
	}
}
