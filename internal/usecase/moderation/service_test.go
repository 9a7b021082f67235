package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"nukem-bot/internal/adapters/repo"
	"nukem-bot/internal/domain"
)

type restriction struct {
	chatID, userID int64
	until          time.Time
	canSend        bool
}

type fakeRestrictor struct {
	calls []restriction
	err   error
}

func (f *fakeRestrictor) Restrict(_ context.Context, chatID, userID int64, until time.Time, canSend bool) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, restriction{chatID, userID, until, canSend})
	return nil
}

func newService(ttl time.Duration) (*Service, *fakeRestrictor, *time.Time) {
	store := repo.NewMemory()
	r := &fakeRestrictor{}
	svc := NewService(store, store, r, ttl, zerolog.Nop())
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, r, &now
}

func TestWarnLifecycle(t *testing.T) {
	r := require.New(t)
	svc, _, now := newService(time.Hour)
	ctx := context.Background()
	a := Action{ChatID: 7, TargetID: 42, ActorID: 1, ActorName: "Duke"}

	w, active, err := svc.Warn(ctx, a)
	r.NoError(err)
	r.Equal(1, active)
	r.Equal("No reason given", w.Reason)
	r.NotNil(w.ExpiresAt)

	*now = now.Add(time.Minute)
	a.Reason = "spam"
	_, active, err = svc.Warn(ctx, a)
	r.NoError(err)
	r.Equal(2, active)

	list, err := svc.Warnings(ctx, 7, 42)
	r.NoError(err)
	r.Len(list, 2)
	r.Equal("spam", list[0].Reason)

	removed, left, err := svc.Unwarn(ctx, 7, 42)
	r.NoError(err)
	r.Equal("spam", removed.Reason)
	r.Equal(1, left)

	*now = now.Add(2 * time.Hour)
	list, err = svc.Warnings(ctx, 7, 42)
	r.NoError(err)
	r.Empty(list, "предупреждения истекли")

	_, _, err = svc.Unwarn(ctx, 7, 42)
	r.ErrorIs(err, domain.ErrNotFound)
}

func TestWarnWithoutExpiry(t *testing.T) {
	svc, _, _ := newService(0)
	w, _, err := svc.Warn(context.Background(), Action{ChatID: 7, TargetID: 42, ActorID: 1})
	require.NoError(t, err)
	require.Nil(t, w.ExpiresAt)
}

func TestSelfTarget(t *testing.T) {
	svc, restrictor, _ := newService(time.Hour)
	ctx := context.Background()
	_, _, err := svc.Warn(ctx, Action{ChatID: 7, TargetID: 1, ActorID: 1})
	require.ErrorIs(t, err, ErrSelfTarget)
	_, err = svc.Mute(ctx, Action{ChatID: 7, TargetID: 1, ActorID: 1}, time.Minute)
	require.ErrorIs(t, err, ErrSelfTarget)
	require.Empty(t, restrictor.calls)
}

func TestMuteAndUnmute(t *testing.T) {
	r := require.New(t)
	svc, restrictor, now := newService(time.Hour)
	ctx := context.Background()

	m, err := svc.Mute(ctx, Action{ChatID: 7, TargetID: 42, ActorID: 1, Reason: "flood"}, 10*time.Minute)
	r.NoError(err)
	r.Equal(now.Add(10*time.Minute), m.Until)
	r.Len(restrictor.calls, 1)
	r.False(restrictor.calls[0].canSend)

	perm, err := svc.Mute(ctx, Action{ChatID: 7, TargetID: 43, ActorID: 1}, 0)
	r.NoError(err)
	r.True(perm.Permanent())
	r.True(restrictor.calls[1].until.IsZero())

	r.NoError(svc.Unmute(ctx, 7, 42))
	r.True(restrictor.calls[2].canSend)
}

func TestMuteRestrictFailure(t *testing.T) {
	svc, restrictor, _ := newService(time.Hour)
	restrictor.err = errors.New("not enough rights")
	_, err := svc.Mute(context.Background(), Action{ChatID: 7, TargetID: 42, ActorID: 1}, time.Minute)
	require.Error(t, err)
}

func TestPurgeExpired(t *testing.T) {
	svc, _, now := newService(time.Hour)
	ctx := context.Background()
	_, _, err := svc.Warn(ctx, Action{ChatID: 7, TargetID: 42, ActorID: 1})
	require.NoError(t, err)
	_, err = svc.Mute(ctx, Action{ChatID: 7, TargetID: 42, ActorID: 1}, time.Minute)
	require.NoError(t, err)
	_, err = svc.Mute(ctx, Action{ChatID: 7, TargetID: 43, ActorID: 1}, 0)
	require.NoError(t, err)

	*now = now.Add(2 * time.Hour)
	warnings, mutes, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), warnings)
	require.Equal(t, int64(1), mutes)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{in: "0", want: 0},
		{in: "30s", want: MinDuration},
		{in: "10s", err: true},
		{in: "29s", err: true},
		{in: "10m", want: 10 * time.Minute},
		{in: "2H", want: 2 * time.Hour},
		{in: "1d", want: 24 * time.Hour},
		{in: "366d", want: MaxDuration},
		{in: "367d", err: true},
		{in: "10", err: true},
		{in: "m", err: true},
		{in: "-5m", err: true},
		{in: "5w", err: true},
		{in: "", err: true},
		{in: "99999999999999d", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.err {
				require.ErrorIs(t, err, ErrBadDuration)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "forever", FormatDuration(0))
	require.Equal(t, "2d", FormatDuration(48*time.Hour))
	require.Equal(t, "3h", FormatDuration(3*time.Hour))
	require.Equal(t, "90s", FormatDuration(90*time.Second))
	require.Equal(t, "10m", FormatDuration(10*time.Minute))
}
