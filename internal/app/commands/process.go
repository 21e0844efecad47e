package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smileys/smileys/internal/cache"
	"github.com/smileys/smileys/internal/core/exclusion"
	"github.com/smileys/smileys/internal/core/processor"
	"github.com/smileys/smileys/internal/infra/filtering"
	ctxutil "github.com/smileys/smileys/internal/observability/context"
	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/ui"
)

// ProcessOptions holds the options for the process command.
type ProcessOptions struct {
	PackFlags
	Recursive      bool
	IncludePattern string
	ExcludePattern string
	InPlace        bool
	Backup         bool
	DryRun         bool
	Stdin          bool
	Workers        int
	Format         string
}

// ProcessHandler handles the process command with dependency injection.
type ProcessHandler struct {
	logger logging.Logger
	ui     ui.UserOutput
}

// NewProcessHandler creates a new process command handler.
func NewProcessHandler(logger logging.Logger, ui ui.UserOutput) *ProcessHandler {
	return &ProcessHandler{
		logger: logger,
		ui:     ui,
	}
}

// CreateCommand creates the process cobra command.
func (h *ProcessHandler) CreateCommand() *cobra.Command {
	opts := &ProcessOptions{}

	cmd := &cobra.Command{
		Use:   "process [flags] [path...]",
		Short: "Replace emoticons with smiley icons",
		Long: `Replace text emoticons such as :-) with references to the icons of a
smiley pack. Code blocks, preformatted text, tag markup and configured
patterns are never touched.

A single file is written to standard output unless --in-place is given.
Several files need --in-place or --dry-run.

Examples:
  smileys process post.html                 # Print the processed file
  smileys process --in-place --backup docs/ # Rewrite every document under docs/
  smileys process --dry-run .               # Report what would change
  echo 'hi :)' | smileys process --stdin    # Filter standard input`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Execute(cmd.Context(), cmd, args, opts)
		},
	}

	opts.PackFlags.register(cmd)
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", true, "process directories recursively")
	cmd.Flags().StringVar(&opts.IncludePattern, "include", "", "include file pattern (glob)")
	cmd.Flags().StringVar(&opts.ExcludePattern, "exclude", "", "exclude file pattern (glob)")
	cmd.Flags().BoolVarP(&opts.InPlace, "in-place", "i", false, "write results back to the files")
	cmd.Flags().BoolVar(&opts.Backup, "backup", false, "keep a timestamped copy of every rewritten file")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show what would be changed without modifying files")
	cmd.Flags().BoolVar(&opts.Stdin, "stdin", false, "read a document from standard input")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "number of concurrent workers (0 = profile setting)")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "report format (text, json)")

	return cmd
}

// fileReport is one file of the JSON report.
type fileReport struct {
	Path          string   `json:"path"`
	Size          int64    `json:"size"`
	Substitutions int      `json:"substitutions"`
	Skipped       string   `json:"skipped,omitempty"`
	Written       bool     `json:"written"`
	Backup        string   `json:"backup,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type processReport struct {
	Files         []fileReport `json:"files"`
	Processed     int          `json:"processed"`
	Changed       int          `json:"changed"`
	Failed        int          `json:"failed"`
	Substitutions int          `json:"substitutions"`
	Bytes         int64        `json:"bytes"`
	DurationMS    int64        `json:"duration_ms"`
}

// Execute runs the process command logic with dependency injection.
func (h *ProcessHandler) Execute(parentCtx context.Context, cmd *cobra.Command, args []string, opts *ProcessOptions) error {
	startTime := time.Now()

	if opts.Format != "text" && opts.Format != "json" {
		return fmt.Errorf("unsupported format %q; supported: text, json", opts.Format)
	}

	ctx := parentCtx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ctxutil.WithOperation(ctx, "process")
	ctx = ctxutil.WithComponent(ctx, "cli")

	profile, err := loadProfile(ctx, cmd, h.logger)
	if err != nil {
		return err
	}
	opts.PackFlags.apply(&profile)
	if opts.Workers > 0 {
		profile.Workers = opts.Workers
	}
	// Only documents written back are recorded as processed.
	if !opts.InPlace || opts.DryRun {
		profile.Cache = cache.Config{Backend: cache.BackendNone}
	}
	if err := checkProfile(ctx, profile, h.logger); err != nil {
		return err
	}

	engine, store, err := newEngine(profile, h.logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			h.logger.Warn(ctx, "Closing processing store failed", "error", err)
		}
	}()

	if opts.Stdin || (len(args) == 1 && args[0] == "-") {
		return h.processStream(ctx, engine, cmd.InOrStdin(), profile.Exclusion())
	}

	if len(args) == 0 {
		args = []string{"."}
		h.logger.Debug(ctx, "No paths provided, using current directory")
	}

	files, err := filtering.DiscoverFiles(args, filtering.DiscoveryOptions{
		Recursive:      opts.Recursive,
		IncludePattern: opts.IncludePattern,
		ExcludePattern: opts.ExcludePattern,
	}, profile)
	if err != nil {
		return fmt.Errorf("file discovery failed: %w", err)
	}
	h.logger.Info(ctx, "Starting process operation", "files", len(files), "in_place", opts.InPlace, "dry_run", opts.DryRun)

	toStdout := !opts.InPlace && !opts.DryRun
	if toStdout && len(files) > 1 {
		return fmt.Errorf("%d files matched; use --in-place or --dry-run to process several files", len(files))
	}

	results, err := processor.ProcessFiles(ctx, engine, files, processor.FileOptions{
		Exclusion:   profile.Exclusion(),
		InPlace:     opts.InPlace,
		Backup:      opts.Backup,
		DryRun:      opts.DryRun,
		MaxFileSize: profile.MaxFileSize,
		Workers:     profile.Workers,
	})
	if err != nil {
		return err
	}

	if toStdout && len(results) == 1 {
		r := results[0]
		if r.Err != nil {
			return r.Err
		}
		if r.Skipped == processor.SkipBinary || r.Skipped == processor.SkipTooLarge {
			return fmt.Errorf("%s: skipped (%s)", r.Path, r.Skipped)
		}
		h.ui.Raw(ctx, r.Outcome.Text)
		return nil
	}

	report := h.buildReport(results, time.Since(startTime))
	if opts.Format == "json" {
		if err := h.ui.JSON(ctx, report); err != nil {
			return err
		}
	} else {
		h.printReport(ctx, report, opts.DryRun)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", report.Failed, len(results))
	}
	return nil
}

func (h *ProcessHandler) processStream(ctx context.Context, engine *processor.Engine, r io.Reader, cfg exclusion.Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read standard input: %w", err)
	}

	out := engine.Process(ctx, processor.Document{Text: string(data)}, cfg)
	for _, err := range out.Errors {
		h.ui.Warning(ctx, "%v", err)
	}
	h.ui.Raw(ctx, out.Text)
	return nil
}

func (h *ProcessHandler) buildReport(results []processor.FileResult, elapsed time.Duration) processReport {
	report := processReport{DurationMS: elapsed.Milliseconds()}

	for _, r := range results {
		fr := fileReport{
			Path:          r.Path,
			Size:          r.Size,
			Substitutions: r.Outcome.Substitutions,
			Skipped:       r.Skipped,
			Written:       r.Written,
			Backup:        r.BackupPath,
		}
		for _, w := range r.Outcome.Errors {
			fr.Warnings = append(fr.Warnings, w.Error())
		}
		if r.Err != nil {
			fr.Error = r.Err.Error()
			report.Failed++
		} else if r.Outcome.Processed {
			report.Processed++
			report.Bytes += r.Size
		}
		if r.Changed() {
			report.Changed++
		}
		report.Substitutions += r.Outcome.Substitutions
		report.Files = append(report.Files, fr)
	}
	return report
}

func (h *ProcessHandler) printReport(ctx context.Context, report processReport, dryRun bool) {
	warned := make(map[string]bool)

	for _, f := range report.Files {
		for _, w := range f.Warnings {
			if !warned[w] {
				warned[w] = true
				h.ui.Warning(ctx, "%s", w)
			}
		}

		switch {
		case f.Error != "":
			h.ui.Error(ctx, "%s: %s", f.Path, f.Error)
		case f.Skipped != "":
			h.ui.Progress(ctx, "%s: skipped (%s)", f.Path, f.Skipped)
		case f.Substitutions == 0:
			h.ui.Progress(ctx, "%s: no emoticons", f.Path)
		case dryRun:
			h.ui.Result(ctx, "%s: %s substitutions (dry run)", f.Path, humanize.Comma(int64(f.Substitutions)))
		case f.Backup != "":
			h.ui.Result(ctx, "%s: %s substitutions (backup %s)", f.Path, humanize.Comma(int64(f.Substitutions)), f.Backup)
		default:
			h.ui.Result(ctx, "%s: %s substitutions", f.Path, humanize.Comma(int64(f.Substitutions)))
		}
	}

	h.ui.Success(ctx, "Processed %s files (%s), changed %s, %s substitutions in %s",
		humanize.Comma(int64(report.Processed)),
		humanize.Bytes(uint64(report.Bytes)),
		humanize.Comma(int64(report.Changed)),
		humanize.Comma(int64(report.Substitutions)),
		time.Duration(report.DurationMS)*time.Millisecond)
}
