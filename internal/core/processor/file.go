package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/smileys/smileys/internal/core/exclusion"
	"github.com/smileys/smileys/internal/infra/concurrency"
	"github.com/smileys/smileys/internal/infra/fs"
	ctxutil "github.com/smileys/smileys/internal/observability/context"
)

// Reasons a file was not handed to the engine.
const (
	SkipBinary   = "binary"
	SkipTooLarge = "too large"
)

// File writers, swapped out in tests.
var (
	atomicWrite  = fs.AtomicWriteFile
	createBackup = fs.CreateBackup
)

// FileOptions control how ProcessFile treats files on disk.
type FileOptions struct {
	Exclusion exclusion.Config
	// InPlace writes substituted text back to the file
	InPlace bool
	// Backup copies the original next to the file before writing
	Backup bool
	// DryRun processes without writing
	DryRun bool
	// MaxFileSize skips larger files; zero means no limit
	MaxFileSize int64
	// Workers bounds ProcessFiles concurrency; zero means one per CPU
	Workers int
}

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path       string
	Key        string
	Size       int64
	Outcome    Outcome
	Skipped    string
	Written    bool
	BackupPath string
	Err        error
}

// Changed reports whether the file content differs after substitution.
func (r FileResult) Changed() bool {
	return r.Outcome.Substitutions > 0
}

// ProcessFile reads path, substitutes it with e and, when asked to, writes the
// result back atomically.
func ProcessFile(ctx context.Context, e *Engine, path string, opts FileOptions) FileResult {
	key := DocumentKey(path)
	ctx = ctxutil.WithDocumentKey(ctxutil.WithOperation(ctx, "process_file"), key)
	result := FileResult{Path: path, Key: key}

	info, err := fs.GetFileInfo(path).Value()
	if err != nil {
		result.Err = err
		return result
	}
	result.Size = info.Size

	if opts.MaxFileSize > 0 && info.Size > opts.MaxFileSize {
		result.Skipped = SkipTooLarge
		return result
	}
	if !fs.IsTextFile(path) {
		e.logger.Debug(ctx, "Skipping binary file", "file_path", path)
		result.Skipped = SkipBinary
		return result
	}

	content, err := fs.ReadFile(path).Value()
	if err != nil {
		result.Err = err
		return result
	}

	result.Outcome = e.Process(ctx, Document{Key: key, ModifiedAt: info.ModTime, Text: string(content)}, opts.Exclusion)
	result.Skipped = result.Outcome.Skipped

	if !opts.InPlace || opts.DryRun || !result.Changed() {
		return result
	}

	if opts.Backup {
		backup, err := createBackup(path, time.Now()).Value()
		if err != nil {
			result.Err = fmt.Errorf("create backup: %w", err)
			e.Forget(ctx, key)
			return result
		}
		result.BackupPath = backup
	}

	if err := atomicWrite(path, []byte(result.Outcome.Text), info.Mode).Error(); err != nil {
		result.Err = fmt.Errorf("write file: %w", err)
		e.Forget(ctx, key)
		return result
	}
	result.Written = true

	if written, err := fs.GetFileInfo(path).Value(); err == nil {
		if err := e.Remember(ctx, key, written.ModTime); err != nil {
			e.logger.Warn(ctx, "Could not record written file", "file_path", path, "error", err)
		}
	}

	e.logger.Debug(ctx, "File updated",
		"file_path", path,
		"substitutions", result.Outcome.Substitutions,
		"backup", result.BackupPath)
	return result
}

// ProcessFiles runs ProcessFile over paths concurrently. Results keep the
// order of paths.
func ProcessFiles(ctx context.Context, e *Engine, paths []string, opts FileOptions) ([]FileResult, error) {
	return concurrency.Map(ctx, paths, opts.Workers, func(ctx context.Context, path string) FileResult {
		if err := ctx.Err(); err != nil {
			return FileResult{Path: path, Err: err}
		}
		return ProcessFile(ctx, e, path, opts)
	})
}
