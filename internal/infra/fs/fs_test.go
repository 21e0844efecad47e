package fs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads content", func(t *testing.T) {
		path := filepath.Join(dir, "post.md")
		require.NoError(t, os.WriteFile(path, []byte("hello :-)"), 0o644))

		result := ReadFile(path)
		require.True(t, result.IsOk())
		assert.Equal(t, "hello :-)", string(result.Unwrap()))
	})

	t.Run("missing file is an error", func(t *testing.T) {
		result := ReadFile(filepath.Join(dir, "missing.md"))
		assert.True(t, result.IsErr())
		assert.ErrorIs(t, result.Error(), os.ErrNotExist)
	})
}

func TestGetFileInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.md")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o600))
	mtime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	info := GetFileInfo(path)
	require.True(t, info.IsOk())
	assert.Equal(t, int64(5), info.Unwrap().Size)
	assert.True(t, info.Unwrap().ModTime.Equal(mtime))

	assert.True(t, GetFileInfo(path+".missing").IsErr())
}

func TestIsTextContent(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"empty", nil, true},
		{"ascii", []byte("plain text :-)\n"), true},
		{"utf8", []byte("héllo wörld 😀"), true},
		{"nul byte", []byte("abc\x00def"), false},
		{"invalid utf8", []byte{0xff, 0xfe, 'a', 'b'}, false},
		{"mostly control", []byte{1, 2, 3, 4, 'a'}, false},
		{"truncated rune at end", []byte("smile \xf0\x9f\x98"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTextContent(tt.data))
		})
	}
}

func TestIsTextFile(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "a.md")
	binary := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(text, []byte(strings.Repeat("words :) ", 500)), 0o644))
	require.NoError(t, os.WriteFile(binary, []byte{0x89, 'P', 'N', 'G', 0, 0, 0, 0x0d}, 0o644))

	assert.True(t, IsTextFile(text))
	assert.False(t, IsTextFile(binary))
	assert.False(t, IsTextFile(filepath.Join(dir, "missing")))
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.md")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	result := AtomicWriteFile(path, []byte("new"), 0o644)
	require.True(t, result.IsOk(), "%v", result.Error())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	if runtime.GOOS != "windows" {
		stat, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm(), "existing permissions kept")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")

	assert.True(t, AtomicWriteFile(filepath.Join(dir, "nope", "x.md"), []byte("x"), 0o644).IsErr())
}

func TestCreateBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.md")
	require.NoError(t, os.WriteFile(path, []byte("original :-)"), 0o644))

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	result := CreateBackup(path, now)
	require.True(t, result.IsOk())
	assert.Equal(t, filepath.Join(dir, "post.backup.20240506-070809.md"), result.Unwrap())

	data, err := os.ReadFile(result.Unwrap())
	require.NoError(t, err)
	assert.Equal(t, "original :-)", string(data))

	assert.True(t, CreateBackup(filepath.Join(dir, "missing.md"), now).IsErr())
}
