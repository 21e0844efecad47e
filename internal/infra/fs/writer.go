package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smileys/smileys/internal/types"
)

// AtomicWriteFile writes data next to path and renames it into place, keeping
// the permissions of an existing file.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) types.Result[struct{}] {
	if stat, err := os.Stat(path); err == nil {
		perm = stat.Mode().Perm()
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".smileys-tmp-*")
	if err != nil {
		return types.Err[struct{}](err)
	}
	tmpPath := tmpFile.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return types.Err[struct{}](err)
	}
	if err := tmpFile.Sync(); err != nil {
		return types.Err[struct{}](err)
	}
	if err := tmpFile.Close(); err != nil {
		return types.Err[struct{}](err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return types.Err[struct{}](err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return types.Err[struct{}](err)
	}

	committed = true
	return types.Ok(struct{}{})
}

// CreateBackup copies path to <name>.backup.<timestamp><ext> in the same
// directory and returns the backup path.
func CreateBackup(path string, now time.Time) types.Result[string] {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	backupPath := filepath.Join(filepath.Dir(path),
		fmt.Sprintf("%s.backup.%s%s", name, now.Format("20060102-150405"), ext))

	content, err := os.ReadFile(path) // #nosec G304 - paths come from discovery
	if err != nil {
		return types.Err[string](err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return types.Err[string](err)
	}
	if err := os.WriteFile(backupPath, content, stat.Mode().Perm()); err != nil {
		return types.Err[string](err)
	}
	return types.Ok(backupPath)
}
