package matcher

import (
	"errors"
	"testing"

	"github.com/smileys/smileys/internal/core/pack"
	"github.com/smileys/smileys/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPack(smileys ...types.Smiley) types.Pack {
	return types.Pack{ID: "test", Smileys: smileys}
}

func mustCompile(t *testing.T, p types.Pack, opts Options) *Matcher {
	t.Helper()
	m, err := Compile(p, opts)
	require.NoError(t, err)
	return m
}

func TestFindNextMatch(t *testing.T) {
	p := testPack(
		types.Smiley{Trigger: ":-)", Icon: "B"},
		types.Smiley{Trigger: ":)", Icon: "A"},
		types.Smiley{Trigger: "<3", Icon: "heart"},
	)
	m := mustCompile(t, p, Options{})

	tests := []struct {
		name      string
		text      string
		from      int
		wantFound bool
		wantStart int
		wantEnd   int
		wantIcon  string
	}{
		{name: "longest trigger wins at a position", text: "hi :-) there", wantFound: true, wantStart: 3, wantEnd: 6, wantIcon: "B"},
		{name: "short trigger alone", text: "ok :)", wantFound: true, wantStart: 3, wantEnd: 5, wantIcon: "A"},
		{name: "earliest position wins over longer later match", text: ":) :-)", wantFound: true, wantStart: 0, wantEnd: 2, wantIcon: "A"},
		{name: "respects from offset", text: ":) <3", from: 1, wantFound: true, wantStart: 3, wantEnd: 5, wantIcon: "heart"},
		{name: "no match", text: "plain text", wantFound: false},
		{name: "empty text", text: "", wantFound: false},
		{name: "from past end", text: ":)", from: 5, wantFound: false},
		{name: "multibyte text before trigger", text: "héllo :)", wantFound: true, wantStart: 7, wantEnd: 9, wantIcon: "A"},
		{name: "glued to word without boundary option", text: "abc:)", wantFound: true, wantStart: 3, wantEnd: 5, wantIcon: "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, found := m.FindNextMatch(tt.text, tt.from)
			assert.Equal(t, tt.wantFound, found)
			if !tt.wantFound {
				return
			}
			assert.Equal(t, tt.wantStart, match.Start)
			assert.Equal(t, tt.wantEnd, match.End)
			assert.Equal(t, tt.wantIcon, match.Smiley.Icon)
		})
	}
}

func TestFindNextMatchWordBoundary(t *testing.T) {
	p := testPack(
		types.Smiley{Trigger: ":-/", Icon: "long"},
		types.Smiley{Trigger: ":/", Icon: "short"},
		types.Smiley{Trigger: ":-", Icon: "dash"},
	)
	m := mustCompile(t, p, Options{WordBoundary: true})

	_, found := m.FindNextMatch("see http://example.com", 0)
	assert.False(t, found, "url scheme must not match")

	match, found := m.FindNextMatch("hmm :/ ok", 0)
	require.True(t, found)
	assert.Equal(t, "short", match.Smiley.Icon)

	// The longest trigger is glued to a letter; a shorter one at the same
	// offset still qualifies.
	match, found = m.FindNextMatch("x :-/a", 0)
	require.True(t, found)
	assert.Equal(t, "dash", match.Smiley.Icon)
	assert.Equal(t, 2, match.Start)
}

func TestMatchAt(t *testing.T) {
	m := mustCompile(t, testPack(types.Smiley{Trigger: ":)", Icon: "A"}), Options{})

	_, ok := m.MatchAt("a :)", 0)
	assert.False(t, ok)

	match, ok := m.MatchAt("a :)", 2)
	require.True(t, ok)
	assert.Equal(t, 4, match.End)

	_, ok = m.MatchAt("a :)", 10)
	assert.False(t, ok)
}

func TestCompile(t *testing.T) {
	t.Run("rejects empty trigger", func(t *testing.T) {
		_, err := Compile(testPack(types.Smiley{Trigger: "", Icon: "x"}), Options{})

		var formatErr *pack.PackFormatError
		assert.True(t, errors.As(err, &formatErr))
	})

	t.Run("whitespace trigger matches whitespace", func(t *testing.T) {
		m := mustCompile(t, testPack(types.Smiley{Trigger: "  ", Icon: "gap"}), Options{})

		match, found := m.FindNextMatch("a  b", 0)
		require.True(t, found)
		assert.Equal(t, 1, match.Start)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("does not alias the pack slice", func(t *testing.T) {
		p := testPack(types.Smiley{Trigger: ":)", Icon: "A"})
		m := mustCompile(t, p, Options{})
		p.Smileys[0].Icon = "changed"

		match, _ := m.FindNextMatch(":)", 0)
		assert.Equal(t, "A", match.Smiley.Icon)
	})
}
