package karma

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"nukem-bot/internal/adapters/repo"
	"nukem-bot/internal/domain"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store := repo.NewMemory()
	ctx := context.Background()
	now := time.Now()
	for i, name := range []string{"Duke", "Pig", "Alien"} {
		for j := 0; j <= i; j++ {
			_, _, err := store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: int64(i + 1), FirstName: name, Kind: domain.SightingMessage, SeenAt: now})
			require.NoError(t, err)
		}
	}
	return NewService(store, store, zerolog.Nop())
}

func TestGiveAndTake(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	total, err := svc.Give(ctx, 7, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	total, err = svc.Take(ctx, 7, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 0, total)

	_, err = svc.Give(ctx, 7, 1, 1)
	require.ErrorIs(t, err, ErrSelfTarget)

	_, err = svc.Give(ctx, 7, 1, 99)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShow(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Give(ctx, 7, 2, 1)
	require.NoError(t, err)

	u, err := svc.Show(ctx, 7, 1)
	require.NoError(t, err)
	require.Equal(t, 1, u.Karma)

	_, err = svc.Show(ctx, 7, 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLeaderboard(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Give(ctx, 7, 1, 2)
	require.NoError(t, err)

	top, err := svc.Leaderboard(ctx, 7, domain.LeaderboardKarma)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, int64(2), top[0].UserID)

	top, err = svc.Leaderboard(ctx, 7, domain.LeaderboardActivity)
	require.NoError(t, err)
	require.Len(t, top, 3)
	require.Equal(t, int64(3), top[0].UserID)
}

func TestParseBoard(t *testing.T) {
	tests := []struct {
		in   string
		want domain.LeaderboardKind
		err  bool
	}{
		{in: "", want: domain.LeaderboardKarma},
		{in: "Karma", want: domain.LeaderboardKarma},
		{in: "activity", want: domain.LeaderboardActivity},
		{in: "messages", want: domain.LeaderboardActivity},
		{in: "guns", err: true},
	}
	for _, tt := range tests {
		got, err := ParseBoard(tt.in)
		if tt.err {
			require.ErrorIs(t, err, ErrUnknownBoard)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}
