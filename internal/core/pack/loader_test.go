package pack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePack(t *testing.T, packsDir, name, definition string) string {
	t.Helper()
	dir := filepath.Join(packsDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefinitionFile), []byte(definition), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("orders triggers by descending length", func(t *testing.T) {
		dir := writePack(t, t.TempDir(), "basic", `
name: Basic
version: 2.0.0
smileys:
  - icon: smile.png
    title: Smile
    triggers: [":)", ":-)"]
  - icon: angry.png
    triggers: [">:-("]
`)
		p, err := Load(dir).Value()
		require.NoError(t, err)

		assert.Equal(t, "basic", p.ID)
		assert.Equal(t, "Basic", p.Name)
		assert.Equal(t, "2.0.0", p.Version)
		assert.Equal(t, []string{">:-(", ":-)", ":)"}, p.Triggers())
	})

	t.Run("last definition wins on duplicate trigger", func(t *testing.T) {
		dir := writePack(t, t.TempDir(), "dupes", `
smileys:
  - icon: first.png
    triggers: [":)"]
  - icon: second.png
    triggers: [":)"]
emoticons:
  ";)": wink.png
  ";-)": wink2.png
`)
		p, err := Load(dir).Value()
		require.NoError(t, err)

		s, ok := p.Lookup(":)")
		require.True(t, ok)
		assert.Equal(t, "second.png", s.Icon)
		assert.Len(t, p.Smileys, 3)
		assert.Equal(t, "dupes", p.Name)
	})

	t.Run("flat emoticons override list entries", func(t *testing.T) {
		dir := writePack(t, t.TempDir(), "flat", `
smileys:
  - icon: smile.png
    triggers: [":)"]
emoticons:
  ":)": override.png
`)
		p, err := Load(dir).Value()
		require.NoError(t, err)

		s, _ := p.Lookup(":)")
		assert.Equal(t, "override.png", s.Icon)
	})

	t.Run("missing directory", func(t *testing.T) {
		result := Load(filepath.Join(t.TempDir(), "nope"))
		require.True(t, result.IsErr())

		var notFound *PackNotFoundError
		assert.True(t, errors.As(result.Error(), &notFound))
	})

	t.Run("missing definition file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "empty")
		require.NoError(t, os.MkdirAll(dir, 0o755))

		var notFound *PackNotFoundError
		assert.True(t, errors.As(Load(dir).Error(), &notFound))
	})

	formatCases := []struct {
		name       string
		definition string
	}{
		{name: "malformed yaml", definition: "smileys: [::"},
		{name: "no smileys", definition: "name: Empty\n"},
		{name: "empty trigger", definition: "smileys:\n  - icon: a.png\n    triggers: [\"\"]\n"},
		{name: "missing icon", definition: "smileys:\n  - triggers: [\":)\"]\n"},
		{name: "no triggers", definition: "smileys:\n  - icon: a.png\n"},
		{name: "emoticons not a mapping", definition: "emoticons: [a, b]\n"},
	}
	for _, tc := range formatCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writePack(t, t.TempDir(), "bad", tc.definition)

			var formatErr *PackFormatError
			assert.True(t, errors.As(Load(dir).Error(), &formatErr), "expected PackFormatError")
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("named pack", func(t *testing.T) {
		packsDir := t.TempDir()
		writePack(t, packsDir, "mine", "smileys:\n  - icon: x.png\n    triggers: [\"xD\"]\n")

		p, err := Resolve(packsDir, "mine")
		require.NoError(t, err)
		assert.Equal(t, "mine", p.ID)
	})

	t.Run("falls back to on-disk default", func(t *testing.T) {
		packsDir := t.TempDir()
		writePack(t, packsDir, DefaultPackName, "smileys:\n  - icon: d.png\n    triggers: [\":)\"]\n")

		p, cause := Resolve(packsDir, "does_not_exist")
		var notFound *PackNotFoundError
		assert.True(t, errors.As(cause, &notFound))
		assert.Equal(t, DefaultPackName, p.ID)
		assert.False(t, p.Embedded)
		assert.Equal(t, []string{":)"}, p.Triggers())
	})

	t.Run("falls back to embedded default", func(t *testing.T) {
		p, cause := Resolve(t.TempDir(), "does_not_exist")
		assert.Error(t, cause)
		assert.True(t, p.Embedded)

		embedded, err := Embedded()
		require.NoError(t, err)
		assert.Equal(t, embedded.Triggers(), p.Triggers())
	})

	t.Run("broken pack falls back", func(t *testing.T) {
		packsDir := t.TempDir()
		writePack(t, packsDir, "broken", "smileys: {")

		p, cause := Resolve(packsDir, "broken")
		var formatErr *PackFormatError
		assert.True(t, errors.As(cause, &formatErr))
		assert.True(t, p.Embedded)
	})
}

func TestEmbeddedDefault(t *testing.T) {
	p, err := Embedded()
	require.NoError(t, err)

	assert.Equal(t, DefaultPackName, p.ID)
	assert.Equal(t, "Simple Smileys", p.Name)
	for i := 1; i < len(p.Smileys); i++ {
		assert.GreaterOrEqual(t, len(p.Smileys[i-1].Trigger), len(p.Smileys[i].Trigger))
	}
	s, ok := p.Lookup(":-)")
	require.True(t, ok)
	assert.Equal(t, "smile.png", s.Icon)
}

func TestList(t *testing.T) {
	packsDir := t.TempDir()
	writePack(t, packsDir, "alpha", "name: Alpha\nsmileys:\n  - icon: a.png\n    triggers: [\":)\", \":-)\"]\n")
	writePack(t, packsDir, "broken", "smileys: {")
	require.NoError(t, os.MkdirAll(filepath.Join(packsDir, "assets-only"), 0o755))

	summaries, err := List(packsDir)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "alpha", summaries[0].ID)
	assert.Equal(t, 2, summaries[0].Smileys)
	assert.NoError(t, summaries[0].Err)
	assert.Equal(t, "broken", summaries[1].ID)
	assert.Error(t, summaries[1].Err)

	_, err = List(filepath.Join(packsDir, "missing"))
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	dir := writePack(t, t.TempDir(), "live", "smileys:\n  - icon: a.png\n    triggers: [\":)\"]\n")

	var calls atomic.Int32
	w := NewWatcher(dir, 20*time.Millisecond, logging.NewMockLogger(), func(context.Context) {
		calls.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefinitionFile), []byte("smileys:\n  - icon: b.png\n    triggers: [\":(\"]\n"), 0o644))
	}

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
