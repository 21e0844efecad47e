package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/smileys/smileys/internal/config"
	"github.com/smileys/smileys/internal/infra/fs"
	ctxutil "github.com/smileys/smileys/internal/observability/context"
	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/ui"
)

// ConfigInitOptions holds the options for config init.
type ConfigInitOptions struct {
	Output string
	Force  bool
}

// ConfigHandler validates and generates configuration files.
type ConfigHandler struct {
	logger logging.Logger
	ui     ui.UserOutput
}

// NewConfigHandler creates a new config command handler.
func NewConfigHandler(logger logging.Logger, ui ui.UserOutput) *ConfigHandler {
	return &ConfigHandler{
		logger: logger,
		ui:     ui,
	}
}

// CreateCommand creates the config command group.
func (h *ConfigHandler) CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate or generate configuration files",
	}

	validate := &cobra.Command{
		Use:           "validate [file]",
		Short:         "Check a configuration file for errors and questionable settings",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Root().PersistentFlags().GetString("config")
			if len(args) == 1 {
				path = args[0]
			}
			return h.Validate(cmd.Context(), path)
		},
	}

	initOpts := &ConfigInitOptions{}
	initCmd := &cobra.Command{
		Use:           "init",
		Short:         "Write a configuration file holding the default profile",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Init(cmd.Context(), initOpts)
		},
	}
	initCmd.Flags().StringVarP(&initOpts.Output, "output", "o", "", "file to write (default: first search path)")
	initCmd.Flags().BoolVar(&initOpts.Force, "force", false, "overwrite an existing file")

	cmd.AddCommand(validate, initCmd)
	return cmd
}

// Validate reports every issue of the file at path, or of the file found in
// the search path when path is empty.
func (h *ConfigHandler) Validate(ctx context.Context, path string) error {
	ctx = ctxutil.WithOperation(ctxutil.WithComponent(ctx, "cli"), "config_validate")

	if path == "" {
		found, ok := config.Locate()
		if !ok {
			return fmt.Errorf("no configuration file found in %v", config.SearchPaths())
		}
		path = found
	}

	result := config.ValidateConfigFile(path)
	h.logger.Info(ctx, "Configuration validated", "config_file", path, "errors", result.Summary.Errors, "warnings", result.Summary.Warnings)

	if result.IsValid && len(result.Issues) == 0 {
		h.ui.Success(ctx, "%s: configuration is valid", path)
		return nil
	}

	for _, issue := range result.Issues {
		switch issue.Level {
		case config.ValidationLevelError:
			h.ui.Error(ctx, "%s", issue.String())
		case config.ValidationLevelWarning:
			h.ui.Warning(ctx, "%s", issue.String())
		default:
			h.ui.Info(ctx, "%s", issue.String())
		}
	}
	h.ui.Result(ctx, "%s: %s", path, result.Summary.String())

	if !result.IsValid {
		return fmt.Errorf("%s: %d configuration errors", path, result.Summary.Errors)
	}
	return nil
}

// Init writes the default configuration as YAML.
func (h *ConfigHandler) Init(ctx context.Context, opts *ConfigInitOptions) error {
	ctx = ctxutil.WithOperation(ctxutil.WithComponent(ctx, "cli"), "config_init")

	path := opts.Output
	if path == "" {
		path = filepath.Join(config.SearchPaths()[0], config.FileName)
	}
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}

	data, err := config.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("render configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := fs.AtomicWriteFile(path, data, 0o644).Error(); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}

	h.logger.Info(ctx, "Configuration written", "config_file", path)
	h.ui.Success(ctx, "Wrote %s", path)
	return nil
}
