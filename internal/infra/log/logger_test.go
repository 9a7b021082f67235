package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	if got := NewLogger("dev", "").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("dev level = %v, want debug", got)
	}
	if got := NewLogger("prod", "").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("prod level = %v, want info", got)
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	logger := NewLogger("prod", path)
	logger.Info().Msg("hail to the king")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log file to be written")
	}
}
