// Package commands provides CLI command implementations using dependency injection.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smileys/smileys/internal/cache"
	"github.com/smileys/smileys/internal/config"
	"github.com/smileys/smileys/internal/core/processor"
	"github.com/smileys/smileys/internal/metrics"
	"github.com/smileys/smileys/internal/observability/logging"
)

// PackFlags override the pack selection of the active profile.
type PackFlags struct {
	PacksDir string
	Pack     string
}

func (f *PackFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.PacksDir, "packs-dir", "", "directory holding smiley packs (overrides profile)")
	cmd.Flags().StringVar(&f.Pack, "pack", "", "smiley pack to use (overrides profile)")
}

func (f PackFlags) apply(p *config.Profile) {
	if f.PacksDir != "" {
		p.PacksDir = f.PacksDir
	}
	if f.Pack != "" {
		p.Pack = f.Pack
	}
}

// loadProfile resolves the profile named by the root --config and --profile
// flags. Validation errors fail the command; warnings are logged.
func loadProfile(ctx context.Context, cmd *cobra.Command, logger logging.Logger) (config.Profile, error) {
	configFile, _ := cmd.Root().PersistentFlags().GetString("config")
	profileName, _ := cmd.Root().PersistentFlags().GetString("profile")

	logger.Debug(ctx, "Loading configuration", "config_file", configFile, "profile", profileName)
	profile, err := config.Load(configFile, profileName).Value()
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", "config_file", configFile, "error", err)
		return config.Profile{}, fmt.Errorf("failed to load config: %w", err)
	}
	return profile, nil
}

// checkProfile validates profile after flag overrides were applied.
func checkProfile(ctx context.Context, profile config.Profile, logger logging.Logger) error {
	result := config.NewConfigValidator().ValidateConfig(config.Config{
		Profiles: map[string]config.Profile{config.DefaultProfileName: profile},
	})
	for _, issue := range result.Issues {
		if issue.Level == config.ValidationLevelWarning {
			logger.Warn(ctx, "Configuration warning", "field", issue.Field, "message", issue.Message)
		}
	}
	if result.HasErrors() {
		return fmt.Errorf("invalid configuration: %v", result.GetErrorMessages())
	}
	return nil
}

// newEngine opens the profile's processing store and builds an engine on it.
// The returned store must be closed by the caller.
func newEngine(profile config.Profile, logger logging.Logger, m *metrics.Metrics) (*processor.Engine, cache.Store, error) {
	store, err := cache.New(profile.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("open processing store: %w", err)
	}

	engine, err := processor.New(processor.Options{
		PacksDir: profile.PacksDir,
		Pack:     profile.Pack,
		Render:   profile.RenderOptions(),
		Matcher:  profile.MatcherOptions(),
		Store:    store,
		Logger:   logger,
		Metrics:  m,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return engine, store, nil
}
