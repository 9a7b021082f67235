package keywords

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	m, err := NewMatcher(DefaultRules())
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want Reaction
		kw   string
		ok   bool
	}{
		{name: "plain", text: "time to nuke them", want: ReactQuote, kw: "nuke", ok: true},
		{name: "case", text: "NUKEM!!!", want: ReactQuote, kw: "nukem", ok: true},
		{name: "longest at same position", text: "nukem time", want: ReactQuote, kw: "nukem", ok: true},
		{name: "first by position", text: "aliens ate my gum", want: ReactAlienScan, kw: "aliens", ok: true},
		{name: "phrase", text: "chew bubble gum", want: ReactOutOfGum, kw: "bubble gum", ok: true},
		{name: "transliterated", text: "Dúke rules", want: ReactHype, kw: "duke", ok: true},
		{name: "inside word", text: "nukes everywhere", ok: false},
		{name: "prefix of word", text: "gumball", ok: false},
		{name: "none", text: "hello there", ok: false},
		{name: "empty", text: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.text)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got.Reaction)
				require.Equal(t, tt.kw, got.Keyword)
			}
		})
	}
}

func TestNewMatcherEmpty(t *testing.T) {
	_, err := NewMatcher(nil)
	require.ErrorIs(t, err, ErrNoKeywords)

	_, err = NewMatcher([]Rule{{Keywords: []string{"  "}, Reaction: ReactHype}})
	require.ErrorIs(t, err, ErrNoKeywords)
}

func TestNewMatcherDuplicates(t *testing.T) {
	m, err := NewMatcher([]Rule{
		{Keywords: []string{"Duke"}, Reaction: ReactHype},
		{Keywords: []string{"duke"}, Reaction: ReactQuote},
	})
	require.NoError(t, err)
	got, ok := m.Match("duke")
	require.True(t, ok)
	require.Equal(t, ReactHype, got.Reaction, "первое правило главнее")
}
