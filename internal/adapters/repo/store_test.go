package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nukem-bot/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func runStoreContract(t *testing.T, newStore func(t *testing.T) domain.Store) {
	t.Run("last write wins", func(t *testing.T) {
		r := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		_, created, err := store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 42, FirstName: "Old", Kind: domain.SightingMessage, SeenAt: t0})
		r.NoError(err)
		r.True(created)

		_, created, err = store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 42, FirstName: "New", Username: "duke", Kind: domain.SightingMessage, SeenAt: t0.Add(time.Minute)})
		r.NoError(err)
		r.False(created)

		_, _, err = store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 42, FirstName: "Stale", Kind: domain.SightingMessage, SeenAt: t0.Add(-time.Minute)})
		r.NoError(err)

		users, err := store.ListChatUsers(ctx, 7)
		r.NoError(err)
		r.Len(users, 1)
		r.Equal("New", users[0].DisplayName())
		r.Equal(int64(3), users[0].MessageCount)
		r.True(users[0].LastSeen.Equal(t0.Add(time.Minute)))

		empty, err := store.ListChatUsers(ctx, 8)
		r.NoError(err)
		r.Empty(empty)
	})

	t.Run("lookup and removal", func(t *testing.T) {
		r := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		_, _, err := store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 1, Username: "Duke", Kind: domain.SightingMessage, SeenAt: t0})
		r.NoError(err)

		u, err := store.FindByUsername(ctx, 7, "@duke")
		r.NoError(err)
		r.Equal(int64(1), u.UserID)

		_, err = store.FindByUsername(ctx, 8, "duke")
		r.ErrorIs(err, domain.ErrNotFound)

		r.NoError(store.RemoveUser(ctx, 7, 1))
		_, err = store.GetUser(ctx, 7, 1)
		r.ErrorIs(err, domain.ErrNotFound)
	})

	t.Run("username changed hands", func(t *testing.T) {
		r := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		_, _, err := store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 2, Username: "bob", Kind: domain.SightingMessage, SeenAt: t0.Add(time.Hour)})
		r.NoError(err)
		_, _, err = store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 1, Username: "Bob", Kind: domain.SightingMessage, SeenAt: t0})
		r.NoError(err)

		for i := 0; i < 20; i++ {
			u, err := store.FindByUsername(ctx, 7, "@bob")
			r.NoError(err)
			r.Equal(int64(2), u.UserID, "the latest holder of the username wins")
		}

		_, _, err = store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 3, Username: "ann", Kind: domain.SightingMessage, SeenAt: t0})
		r.NoError(err)
		_, _, err = store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 4, Username: "ann", Kind: domain.SightingMessage, SeenAt: t0})
		r.NoError(err)
		for i := 0; i < 20; i++ {
			u, err := store.FindByUsername(ctx, 7, "ann")
			r.NoError(err)
			r.Equal(int64(4), u.UserID, "ties go to the larger id")
		}
	})

	t.Run("karma and leaderboard", func(t *testing.T) {
		r := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		for id := int64(1); id <= 3; id++ {
			_, _, err := store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: id, FirstName: "U", Kind: domain.SightingMessage, SeenAt: t0})
			r.NoError(err)
		}
		_, _, err := store.UpsertSighting(ctx, domain.Sighting{ChatID: 7, UserID: 3, FirstName: "U", Kind: domain.SightingMessage, SeenAt: t0.Add(time.Second)})
		r.NoError(err)

		karma, err := store.AddKarma(ctx, 7, 2, 1)
		r.NoError(err)
		r.Equal(1, karma)
		karma, err = store.AddKarma(ctx, 7, 2, 1)
		r.NoError(err)
		r.Equal(2, karma)
		_, err = store.AddKarma(ctx, 7, 1, -1)
		r.NoError(err)

		_, err = store.AddKarma(ctx, 7, 99, 1)
		r.ErrorIs(err, domain.ErrNotFound)

		top, err := store.TopUsers(ctx, 7, domain.LeaderboardKarma, 10)
		r.NoError(err)
		r.Len(top, 2)
		r.Equal(int64(2), top[0].UserID)
		r.Equal(int64(1), top[1].UserID)

		active, err := store.TopUsers(ctx, 7, domain.LeaderboardActivity, 1)
		r.NoError(err)
		r.Len(active, 1)
		r.Equal(int64(3), active[0].UserID)
	})

	t.Run("warnings", func(t *testing.T) {
		r := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		expired := t0.Add(-time.Hour)
		future := t0.Add(time.Hour)
		_, err := store.AddWarning(ctx, domain.Warning{ChatID: 7, UserID: 5, Reason: "old", IssuedBy: 1, CreatedAt: t0.Add(-2 * time.Hour), ExpiresAt: &expired})
		r.NoError(err)
		_, err = store.AddWarning(ctx, domain.Warning{ChatID: 7, UserID: 5, Reason: "first", IssuedBy: 1, CreatedAt: t0.Add(-time.Minute), ExpiresAt: &future})
		r.NoError(err)
		_, err = store.AddWarning(ctx, domain.Warning{ChatID: 7, UserID: 5, Reason: "second", IssuedBy: 1, CreatedAt: t0})
		r.NoError(err)

		active, err := store.ListWarnings(ctx, 7, 5, t0)
		r.NoError(err)
		r.Len(active, 2)
		r.Equal("second", active[0].Reason)

		removed, err := store.RemoveLatestWarning(ctx, 7, 5, t0)
		r.NoError(err)
		r.Equal("second", removed.Reason)

		purged, err := store.PurgeExpiredWarnings(ctx, t0)
		r.NoError(err)
		r.Equal(int64(1), purged)

		_, err = store.RemoveLatestWarning(ctx, 7, 5, t0)
		r.NoError(err)
		_, err = store.RemoveLatestWarning(ctx, 7, 5, t0)
		r.ErrorIs(err, domain.ErrNotFound)
	})

	t.Run("mutes", func(t *testing.T) {
		r := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		r.NoError(store.SaveMute(ctx, domain.Mute{ChatID: 7, UserID: 1, Until: t0.Add(-time.Minute), IssuedBy: 9, CreatedAt: t0}))
		r.NoError(store.SaveMute(ctx, domain.Mute{ChatID: 7, UserID: 2, IssuedBy: 9, CreatedAt: t0}))
		r.NoError(store.SaveMute(ctx, domain.Mute{ChatID: 7, UserID: 3, Until: t0.Add(time.Hour), IssuedBy: 9, CreatedAt: t0}))

		purged, err := store.PurgeExpiredMutes(ctx, t0)
		r.NoError(err)
		r.Equal(int64(1), purged)
		r.NoError(store.DeleteMute(ctx, 7, 3))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(*testing.T) domain.Store { return NewMemory() })
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) domain.Store {
		store, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "nukem.db"))
		if err != nil {
			t.Skipf("sqlite unavailable: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
