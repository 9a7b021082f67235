package content

import (
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestProvider() *Provider {
	return NewProviderWithSource(rand.NewPCG(1, 2))
}

func TestInfo(t *testing.T) {
	p := newTestProvider()
	tests := []struct {
		topic string
		ok    bool
	}{
		{topic: "roadmap", ok: true},
		{topic: "  RoadMap ", ok: true},
		{topic: "", ok: true},
		{topic: "tokenomics", ok: true},
		{topic: "unknown_topic_xyz", ok: false},
		{topic: "road", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			text, ok := p.Info(tt.topic)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.NotEmpty(t, text)
			} else {
				require.Empty(t, text)
			}
		})
	}
}

func TestInfoEmptyIsDefault(t *testing.T) {
	p := newTestProvider()
	def, _ := p.Info("default")
	empty, _ := p.Info("")
	require.Equal(t, def, empty)
}

func TestTopicsSorted(t *testing.T) {
	got := newTestProvider().Topics()
	require.True(t, slices.IsSorted(got))
	require.Contains(t, got, "roadmap")
	require.Contains(t, got, "website")
}

func TestDeterministicWithSource(t *testing.T) {
	a := NewProviderWithSource(rand.NewPCG(7, 7))
	b := NewProviderWithSource(rand.NewPCG(7, 7))
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Quote(), b.Quote())
		require.Equal(t, a.AlienScan(), b.AlienScan())
	}
}

func TestRatingReaction(t *testing.T) {
	p := newTestProvider()
	for i := 0; i < 100; i++ {
		r, reaction := p.Rating()
		require.Contains(t, ratings, r)
		if r.Positive() {
			require.Contains(t, positiveReactions, reaction)
		} else {
			require.Contains(t, negativeReactions, reaction)
		}
	}
}

func TestWeapon(t *testing.T) {
	p := newTestProvider()
	w, ok := p.Weapon(" RPG ")
	require.True(t, ok)
	require.Equal(t, "rpg", w.Key)

	_, ok = p.Weapon("bfg")
	require.False(t, ok)
	require.Len(t, p.Arsenal(), 9)
}

func TestConcurrentPicks(t *testing.T) {
	p := newTestProvider()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				require.Contains(t, quotes, p.Quote())
				require.Contains(t, rejections, p.Rejection())
				require.Contains(t, slowDowns, p.SlowDown())
				require.Contains(t, positiveReactions, p.Cheer())
			}
		}()
	}
	wg.Wait()
}
