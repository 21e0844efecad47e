package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/smileys/smileys/internal/metrics"
	ctxutil "github.com/smileys/smileys/internal/observability/context"
	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/server"
	"github.com/smileys/smileys/internal/ui"
)

// ServeOptions holds the options for the serve command.
type ServeOptions struct {
	PackFlags
	Addr         string
	Watch        bool
	Debounce     time.Duration
	MaxBodyBytes int64
}

// ServeHandler runs the HTTP substitution service.
type ServeHandler struct {
	logger logging.Logger
	ui     ui.UserOutput
}

// NewServeHandler creates a new serve command handler.
func NewServeHandler(logger logging.Logger, ui ui.UserOutput) *ServeHandler {
	return &ServeHandler{
		logger: logger,
		ui:     ui,
	}
}

// CreateCommand creates the serve cobra command.
func (h *ServeHandler) CreateCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve substitution over HTTP",
		Long: `Serve the substitution engine over HTTP until interrupted.

Routes:
  POST /v1/process   {"text": "...", "key": "...", "modified_at": "...", "exclude": {...}}
  GET  /v1/pack      the active pack
  GET  /healthz      liveness
  GET  /metrics      Prometheus metrics

With --watch the active pack is reloaded whenever its directory changes.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Execute(cmd.Context(), cmd, opts)
		},
	}

	opts.PackFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "reload the pack when its files change")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 500*time.Millisecond, "delay before reloading a changed pack")
	cmd.Flags().Int64Var(&opts.MaxBodyBytes, "max-body", server.DefaultMaxBodyBytes, "maximum request body size in bytes")

	return cmd
}

// Execute runs the server until ctx is cancelled.
func (h *ServeHandler) Execute(parentCtx context.Context, cmd *cobra.Command, opts *ServeOptions) error {
	ctx := ctxutil.WithOperation(ctxutil.WithComponent(parentCtx, "cli"), "serve")

	profile, err := loadProfile(ctx, cmd, h.logger)
	if err != nil {
		return err
	}
	opts.PackFlags.apply(&profile)
	if err := checkProfile(ctx, profile, h.logger); err != nil {
		return err
	}

	m := metrics.New()
	engine, store, err := newEngine(profile, h.logger, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			h.logger.Warn(ctx, "Closing processing store failed", "error", err)
		}
	}()

	srv := server.New(engine, server.Options{
		Addr:         opts.Addr,
		Exclusion:    profile.Exclusion(),
		MaxBodyBytes: opts.MaxBodyBytes,
		Logger:       h.logger,
		Metrics:      m,
	})

	h.ui.Info(ctx, "Serving pack %s on %s", engine.Pack().ID, opts.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if opts.Watch {
		g.Go(func() error {
			if err := engine.Watch(gctx, opts.Debounce); err != nil {
				h.logger.Warn(gctx, "Pack watching stopped", "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
