package render

import (
	"strings"
	"testing"

	"github.com/kyokomi/emoji/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileys/smileys/internal/types"
)

func testPack() types.Pack {
	return types.Pack{
		ID: "test",
		Smileys: []types.Smiley{
			{Trigger: ">:-(", Icon: "angry.png", Title: "Angry"},
			{Trigger: ":-)", Icon: "smile.png", Title: "Smile", Emoji: ":smile:"},
			{Trigger: ";-)", Icon: "wink.png", Title: "Wink", Emoji: "wink"},
			{Trigger: ":-?", Icon: "faces/what face.png"},
		},
	}
}

func TestRenderHTML(t *testing.T) {
	r, err := New(testPack(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ModeHTML, r.Mode())

	ref, ok := r.Render(types.Smiley{Trigger: ":-)"})
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(ref, "<img"))
	assert.Contains(t, ref, `class="smileys"`)
	assert.Contains(t, ref, `src="/user/data/smileys/test/smile.png"`)
	assert.Contains(t, ref, `alt=":-)"`)
	assert.Contains(t, ref, `title="Smile"`)

	t.Run("escapes markup in triggers", func(t *testing.T) {
		ref, ok := r.Render(types.Smiley{Trigger: ">:-("})
		require.True(t, ok)
		assert.Contains(t, ref, `alt="&gt;:-("`)
	})

	t.Run("escapes icon path segments and defaults title", func(t *testing.T) {
		ref, ok := r.Render(types.Smiley{Trigger: ":-?"})
		require.True(t, ok)
		assert.Contains(t, ref, "/test/faces/what%20face.png")
		assert.Contains(t, ref, `title="what face"`)
	})

	t.Run("unknown trigger has no reference", func(t *testing.T) {
		_, ok := r.Render(types.Smiley{Trigger: "xD"})
		assert.False(t, ok)
	})
}

func TestRenderBaseURL(t *testing.T) {
	r, err := New(testPack(), Options{BaseURL: "https://cdn.example.com/icons/", CSSClass: "emo"})
	require.NoError(t, err)

	ref, ok := r.Render(types.Smiley{Trigger: ";-)"})
	require.True(t, ok)
	assert.Contains(t, ref, `src="https://cdn.example.com/icons/test/wink.png"`)
	assert.Contains(t, ref, `class="emo"`)
}

func TestRenderWithoutClass(t *testing.T) {
	r, err := New(testPack(), Options{BaseURL: "/img"})
	require.NoError(t, err)

	ref, ok := r.Render(types.Smiley{Trigger: ":-)"})
	require.True(t, ok)
	assert.NotContains(t, ref, "class")
	assert.Contains(t, ref, `src="/img/test/smile.png"`)
}

func TestRenderMarkdown(t *testing.T) {
	r, err := New(testPack(), Options{Mode: ModeMarkdown, BaseURL: "/img"})
	require.NoError(t, err)

	ref, ok := r.Render(types.Smiley{Trigger: ":-)"})
	require.True(t, ok)
	assert.Equal(t, `![Smile](/img/test/smile.png "Smile")`, ref)
	assert.NotContains(t, ref, ":-)")
}

func TestRenderUnicode(t *testing.T) {
	r, err := New(testPack(), Options{Mode: ModeUnicode, BaseURL: "/img"})
	require.NoError(t, err)

	ref, ok := r.Render(types.Smiley{Trigger: ";-)"})
	require.True(t, ok)
	assert.Equal(t, strings.TrimSpace(emoji.Sprint(":wink:")), ref)

	t.Run("falls back to html without a shortcode", func(t *testing.T) {
		ref, ok := r.Render(types.Smiley{Trigger: ">:-("})
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(ref, "<img"))
	})
}

func TestUnknownMode(t *testing.T) {
	_, err := New(testPack(), Options{Mode: "ascii"})
	assert.Error(t, err)
}
