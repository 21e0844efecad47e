package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smileys/smileys/internal/app/commands"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

var buildInfo = BuildInfo{
	Version:   "dev",
	BuildTime: "unknown",
	GitCommit: "unknown",
	GoVersion: runtime.Version(),
}

// SetBuildInfo records the values injected at link time.
func SetBuildInfo(version, buildTime, gitCommit string) {
	buildInfo.Version = version
	buildInfo.BuildTime = buildTime
	buildInfo.GitCommit = gitCommit
}

// Application represents the main application with its dependencies.
type Application struct {
	deps    *Dependencies
	rootCmd *cobra.Command
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new Application instance with the given dependencies.
func New(deps *Dependencies) (*Application, error) {
	if deps == nil {
		return nil, fmt.Errorf("dependencies cannot be nil")
	}

	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
	app.rootCmd = app.createRootCommand()

	return app, nil
}

// Run executes the command line in args.
func (a *Application) Run(args []string) error {
	go a.handleSignals()

	a.rootCmd.SetArgs(args)
	if err := a.rootCmd.ExecuteContext(a.ctx); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// Shutdown cancels running commands and releases dependencies.
func (a *Application) Shutdown() error {
	a.cancel()
	return a.deps.Close(context.Background())
}

// GetDependencies returns the application dependencies (useful for testing).
func (a *Application) GetDependencies() *Dependencies {
	return a.deps
}

// GetRootCommand returns the root cobra command (useful for testing).
func (a *Application) GetRootCommand() *cobra.Command {
	return a.rootCmd
}

// handleSignals cancels the application context on SIGINT or SIGTERM.
func (a *Application) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.deps.Logger.Info(a.ctx, "Received shutdown signal", "signal", sig.String())
		a.cancel()
	case <-a.ctx.Done():
		return
	}
}

func (a *Application) createRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smileys",
		Short: "Replace text emoticons with smiley icons",
		Long: `smileys replaces emoticons such as :-) and ;) in HTML, markdown and
plain text with references to the icons of a smiley pack.

Code blocks, preformatted text, tag markup and configured patterns are left
alone, and processing a document twice changes nothing the second time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildInfo.Version,
	}

	addGlobalFlags(cmd.PersistentFlags())

	cmd.AddCommand(commands.NewProcessHandler(a.deps.Logger, a.deps.UI).CreateCommand())
	cmd.AddCommand(commands.NewPacksHandler(a.deps.Logger, a.deps.UI).CreateCommand())
	cmd.AddCommand(commands.NewServeHandler(a.deps.Logger, a.deps.UI).CreateCommand())
	cmd.AddCommand(commands.NewConfigHandler(a.deps.Logger, a.deps.UI).CreateCommand())
	cmd.AddCommand(a.createVersionCommand())

	return cmd
}

func (a *Application) createVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.deps.Logger.Info(cmd.Context(), "Version command executed", "version", buildInfo.Version)
			if asJSON {
				return a.deps.UI.JSON(cmd.Context(), buildInfo)
			}
			a.deps.UI.Result(cmd.Context(), "smileys %s (commit %s, built %s, %s)",
				buildInfo.Version, buildInfo.GitCommit, buildInfo.BuildTime, buildInfo.GoVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
