package app

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/ui"
)

// BootstrapConfig derives the dependency configuration from the global flags
// in args before the command tree exists. Unknown flags and parse errors are
// left for cobra to report.
func BootstrapConfig(args []string, stdout, stderr io.Writer) *Config {
	fs := pflag.NewFlagSet("bootstrap", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	addGlobalFlags(fs)
	_ = fs.Parse(args)

	cfg := &Config{
		LogLevel:       logging.LevelSilent,
		LogFormat:      logging.FormatJSON,
		LogOutput:      stderr,
		UILevel:        ui.OutputNormal,
		UIWriter:       stdout,
		UIErrorWriter:  stderr,
		UIEnableColors: !color.NoColor,
		ServiceName:    "smileys",
		ServiceVersion: buildInfo.Version,
	}

	if v, err := fs.GetString("log-level"); err == nil {
		if level, err := logging.ParseLevel(v); err == nil {
			cfg.LogLevel = level
		}
	}
	if v, err := fs.GetString("log-format"); err == nil {
		if format, err := logging.ParseFormat(v); err == nil {
			cfg.LogFormat = format
		}
	}
	if quiet, _ := fs.GetBool("quiet"); quiet {
		cfg.UILevel = ui.OutputSilent
	}
	if verbose, _ := fs.GetBool("verbose"); verbose {
		cfg.UILevel = ui.OutputVerbose
	}
	if noColor, _ := fs.GetBool("no-color"); noColor {
		cfg.UIEnableColors = false
	}
	return cfg
}

// addGlobalFlags declares the flags shared by every command.
func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file path (default: search $XDG_CONFIG_HOME/smileys, ~/.config/smileys, .)")
	fs.String("profile", "default", "configuration profile")
	fs.BoolP("verbose", "v", false, "show per-file progress")
	fs.BoolP("quiet", "q", false, "only show errors")
	fs.Bool("no-color", false, "disable colored output")
	fs.String("log-level", "silent", "log level (silent, debug, info, warn, error)")
	fs.String("log-format", "json", "log format (json, text)")
}
