package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smileys/smileys/internal/core/pack"
	ctxutil "github.com/smileys/smileys/internal/observability/context"
	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/ui"
)

// PacksOptions holds the options shared by the packs subcommands.
type PacksOptions struct {
	PackFlags
	Format string
}

// PacksHandler lists and inspects smiley packs.
type PacksHandler struct {
	logger logging.Logger
	ui     ui.UserOutput
}

// NewPacksHandler creates a new packs command handler.
func NewPacksHandler(logger logging.Logger, ui ui.UserOutput) *PacksHandler {
	return &PacksHandler{
		logger: logger,
		ui:     ui,
	}
}

// CreateCommand creates the packs command group.
func (h *PacksHandler) CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packs",
		Short: "List and inspect smiley packs",
	}

	listOpts := &PacksOptions{}
	list := &cobra.Command{
		Use:           "list",
		Short:         "List the packs found in the packs directory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.List(cmd.Context(), cmd, listOpts)
		},
	}
	listOpts.PackFlags.register(list)
	list.Flags().StringVar(&listOpts.Format, "format", "table", "output format (table, json)")

	showOpts := &PacksOptions{}
	show := &cobra.Command{
		Use:   "show [pack]",
		Short: "Show the triggers of a pack",
		Long: `Show the smileys of a pack, longest trigger first. Without an argument
the pack selected by the profile is shown, falling back to the built-in
default pack like processing does.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				showOpts.Pack = args[0]
			}
			return h.Show(cmd.Context(), cmd, showOpts)
		},
	}
	showOpts.PackFlags.register(show)
	show.Flags().StringVar(&showOpts.Format, "format", "table", "output format (table, json)")

	cmd.AddCommand(list, show)
	return cmd
}

// List prints a summary of every pack on disk plus the built-in default.
func (h *PacksHandler) List(ctx context.Context, cmd *cobra.Command, opts *PacksOptions) error {
	if opts.Format != "table" && opts.Format != "json" {
		return formatError(opts.Format)
	}
	ctx = ctxutil.WithOperation(ctxutil.WithComponent(ctx, "cli"), "packs_list")

	profile, err := loadProfile(ctx, cmd, h.logger)
	if err != nil {
		return err
	}
	opts.PackFlags.apply(&profile)

	summaries, err := pack.List(profile.PacksDir)
	var notFound *pack.PackNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	if err != nil {
		h.logger.Debug(ctx, "Packs directory unavailable", "packs_dir", profile.PacksDir, "error", err)
	}

	embedded, err := pack.Embedded()
	if err != nil {
		return err
	}
	summaries = append(summaries, pack.Summary{
		ID:      "(built-in)",
		Name:    embedded.Name,
		Version: embedded.Version,
		Smileys: len(embedded.Smileys),
	})

	if opts.Format == "json" {
		return h.ui.JSON(ctx, summaries)
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		status := "ok"
		if s.Err != nil {
			status = s.Err.Error()
		}
		active := ""
		if s.ID == profile.Pack {
			active = "*"
		}
		rows = append(rows, []string{active + s.ID, s.Name, s.Version, strconv.Itoa(s.Smileys), status})
	}
	h.ui.Table(ctx, []string{"ID", "NAME", "VERSION", "SMILEYS", "STATUS"}, rows)
	return nil
}

// Show prints the smileys of one pack.
func (h *PacksHandler) Show(ctx context.Context, cmd *cobra.Command, opts *PacksOptions) error {
	if opts.Format != "table" && opts.Format != "json" {
		return formatError(opts.Format)
	}
	ctx = ctxutil.WithOperation(ctxutil.WithComponent(ctx, "cli"), "packs_show")

	profile, err := loadProfile(ctx, cmd, h.logger)
	if err != nil {
		return err
	}
	opts.PackFlags.apply(&profile)

	p, cause := pack.Resolve(profile.PacksDir, profile.Pack)
	if p.ID == "" {
		return cause
	}
	if cause != nil {
		h.ui.Warning(ctx, "pack %q unavailable, showing %s: %v", profile.Pack, p.ID, cause)
	}

	if opts.Format == "json" {
		return h.ui.JSON(ctx, p)
	}

	h.ui.Info(ctx, "%s %s (%s), %d smileys", p.Name, p.Version, p.ID, len(p.Smileys))
	rows := make([][]string, 0, len(p.Smileys))
	for _, s := range p.Smileys {
		rows = append(rows, []string{s.Trigger, s.Icon, s.Title, s.Emoji})
	}
	h.ui.Table(ctx, []string{"TRIGGER", "ICON", "TITLE", "EMOJI"}, rows)
	return nil
}

func formatError(format string) error {
	return fmt.Errorf("unsupported format %q; supported: table, json", format)
}
