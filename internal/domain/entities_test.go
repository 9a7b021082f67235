package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSightingMergeCreates(t *testing.T) {
	r := require.New(t)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	u := Sighting{ChatID: 7, UserID: 42, FirstName: "Duke", Kind: SightingMessage, SeenAt: now}.Merge(nil)

	r.Equal(int64(42), u.UserID)
	r.Equal(StatusMember, u.Status)
	r.Equal(int64(1), u.MessageCount)
	r.Equal(now, u.FirstSeen)
	r.Equal(now, u.LastSeen)
}

func TestSightingMergeLastWriteWins(t *testing.T) {
	r := require.New(t)
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	first := Sighting{ChatID: 7, UserID: 42, FirstName: "Duke", Kind: SightingMessage, SeenAt: t0}.Merge(nil)

	newer := Sighting{ChatID: 7, UserID: 42, FirstName: "Nukem", Kind: SightingMessage, SeenAt: t0.Add(time.Minute)}.Merge(&first)
	r.Equal("Nukem", newer.DisplayName())
	r.Equal(int64(2), newer.MessageCount)
	r.Equal(t0, newer.FirstSeen)

	stale := Sighting{ChatID: 7, UserID: 42, FirstName: "Stale", Kind: SightingMessage, SeenAt: t0.Add(-time.Hour)}.Merge(&newer)
	r.Equal("Nukem", stale.DisplayName())
	r.Equal(int64(3), stale.MessageCount)
	r.Equal(t0.Add(time.Minute), stale.LastSeen)
}

func TestSightingMergeStatus(t *testing.T) {
	r := require.New(t)
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	admin := true
	u := Sighting{ChatID: 7, UserID: 1, Kind: SightingMembership, Status: StatusAdministrator, IsChatAdmin: &admin, SeenAt: t0}.Merge(nil)
	r.True(u.IsChatAdmin)

	u = Sighting{ChatID: 7, UserID: 1, Kind: SightingMessage, SeenAt: t0.Add(time.Second)}.Merge(&u)
	r.Equal(StatusAdministrator, u.Status, "message keeps membership status")
	r.True(u.IsChatAdmin)

	u = Sighting{ChatID: 7, UserID: 1, Kind: SightingMembership, Status: StatusLeft, SeenAt: t0.Add(2 * time.Second)}.Merge(&u)
	r.Equal(StatusLeft, u.Status)

	u = Sighting{ChatID: 7, UserID: 1, Kind: SightingMessage, SeenAt: t0.Add(3 * time.Second)}.Merge(&u)
	r.Equal(StatusMember, u.Status, "message revives departed user")
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
		user  string
		want  string
	}{
		{name: "full name", first: "Duke", last: "Nukem", want: "Duke Nukem"},
		{name: "first only", first: "Duke", user: "duke", want: "Duke"},
		{name: "username fallback", user: "duke", want: "@duke"},
		{name: "id fallback", want: "User 42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(42, tt.first, tt.last, tt.user); got != tt.want {
				t.Fatalf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
