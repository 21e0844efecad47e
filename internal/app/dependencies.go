// Package app wires the smileys command line: dependencies, root command and
// lifecycle.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/ui"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	Logger logging.Logger
	UI     ui.UserOutput
}

// Config holds configuration for creating dependencies.
type Config struct {
	// Logging configuration
	LogLevel  logging.LogLevel
	LogFormat logging.LogFormat
	LogOutput io.Writer

	// UI configuration
	UILevel        ui.OutputLevel
	UIWriter       io.Writer
	UIErrorWriter  io.Writer
	UIEnableColors bool

	// Application metadata
	ServiceName    string
	ServiceVersion string
}

// NewDependencies creates the logger and user output described by config. The
// logger also becomes the global logger.
func NewDependencies(config *Config) (*Dependencies, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:          config.LogLevel,
		Format:         config.LogFormat,
		Output:         config.LogOutput,
		ServiceName:    config.ServiceName,
		ServiceVersion: config.ServiceVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logging.SetGlobalLogger(logger)

	userOutput := ui.NewUserOutput(&ui.Config{
		Level:        config.UILevel,
		Writer:       config.UIWriter,
		ErrorWriter:  config.UIErrorWriter,
		EnableColors: config.UIEnableColors,
	})

	return &Dependencies{
		Logger: logger,
		UI:     userOutput,
	}, nil
}

// NewTestDependencies creates dependencies that record instead of printing.
func NewTestDependencies() *Dependencies {
	return &Dependencies{
		Logger: logging.NewMockLogger(),
		UI:     ui.NewMockUserOutput(),
	}
}

// Validate ensures all dependencies are properly initialized.
func (d *Dependencies) Validate() error {
	if d.Logger == nil {
		return fmt.Errorf("logger dependency is nil")
	}
	if d.UI == nil {
		return fmt.Errorf("UI dependency is nil")
	}
	return nil
}

// Close flushes the log provider.
func (d *Dependencies) Close(ctx context.Context) error {
	return logging.Shutdown(ctx)
}
