package stats

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	tr := NewTracker(func() (Process, error) { return Process{RSS: 64 << 20, CPU: 1.5}, nil })
	start := tr.started
	tr.now = func() time.Time { return start.Add(90*time.Second + 300*time.Millisecond) }

	tr.MessageSeen()
	tr.MessageSeen()
	tr.CommandDone("info", nil)
	tr.CommandDone("info", nil)
	tr.CommandDone("mentionall", errors.New("boom"))
	tr.BroadcastSent(3)

	s := tr.Snapshot()
	require.Equal(t, 90*time.Second, s.Uptime)
	require.Equal(t, int64(2), s.Messages)
	require.Equal(t, int64(3), s.Commands)
	require.Equal(t, int64(1), s.Errors)
	require.Equal(t, int64(3), s.Broadcasts)
	require.Equal(t, []CommandCount{{"info", 2}, {"mentionall", 1}}, s.TopCommands)
	require.NotNil(t, s.Process)
}

func TestSnapshotTopLimit(t *testing.T) {
	tr := NewTracker(nil)
	for _, cmd := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		tr.CommandDone(cmd, nil)
	}
	s := tr.Snapshot()
	require.Len(t, s.TopCommands, topCommands)
	require.Nil(t, s.Process)
}

func TestSnapshotProbeError(t *testing.T) {
	tr := NewTracker(func() (Process, error) { return Process{}, errors.New("no proc") })
	require.Nil(t, tr.Snapshot().Process)
}

func TestRender(t *testing.T) {
	out := Render(Snapshot{
		Uptime:      time.Minute,
		Messages:    10,
		TopCommands: []CommandCount{{"info", 4}},
		Process:     &Process{RSS: 32 << 20, CPU: 2},
	}, 5)
	for _, want := range []string{"Uptime", "1m0s", "Tracked users", "/info", "32 MiB", "2.0%"} {
		require.True(t, strings.Contains(out, want), "нет %q в\n%s", want, out)
	}
}
