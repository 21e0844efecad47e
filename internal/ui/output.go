// Package ui provides user-facing output for the smileys CLI.
package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/smileys/smileys/internal/observability/logging"
)

// OutputLevel determines what type of output should be shown to users.
type OutputLevel int

const (
	// OutputSilent shows no user output (only errors)
	OutputSilent OutputLevel = iota
	// OutputNormal shows standard operation results
	OutputNormal
	// OutputVerbose shows detailed operation information
	OutputVerbose
	// OutputDebug shows all available information
	OutputDebug
)

// UserOutput handles all user-facing output, separate from diagnostic logging.
type UserOutput interface {
	Info(ctx context.Context, msg string, args ...any)
	Success(ctx context.Context, msg string, args ...any)
	Warning(ctx context.Context, msg string, args ...any)
	// Error is shown at every level.
	Error(ctx context.Context, msg string, args ...any)
	Result(ctx context.Context, msg string, args ...any)
	// Progress is only shown at OutputVerbose and above.
	Progress(ctx context.Context, msg string, args ...any)
	// Table prints aligned columns under a bold header.
	Table(ctx context.Context, headers []string, rows [][]string)
	// JSON prints v as indented JSON.
	JSON(ctx context.Context, v any) error
	// Raw writes data to the output writer untouched.
	Raw(ctx context.Context, data string)
	SetLevel(level OutputLevel)
	IsLevelEnabled(level OutputLevel) bool
}

// Config holds the user output configuration.
type Config struct {
	Level        OutputLevel
	Writer       io.Writer
	ErrorWriter  io.Writer
	EnableColors bool
}

// DefaultConfig returns a default user output configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:        OutputNormal,
		Writer:       os.Stdout,
		ErrorWriter:  os.Stderr,
		EnableColors: !color.NoColor,
	}
}

type userOutput struct {
	mu     sync.Mutex
	config *Config

	info, success, warning, failure, faint, header *color.Color
}

// NewUserOutput creates a new user output handler.
func NewUserOutput(config *Config) UserOutput {
	if config == nil {
		config = DefaultConfig()
	}
	u := &userOutput{
		config:  config,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
		faint:   color.New(color.FgHiBlack),
		header:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{u.info, u.success, u.warning, u.failure, u.faint, u.header} {
		if config.EnableColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return u
}

func (u *userOutput) Info(ctx context.Context, msg string, args ...any) {
	if !u.IsLevelEnabled(OutputNormal) {
		return
	}
	formatted := fmt.Sprintf(msg, args...)
	logging.Debug(ctx, "User info message displayed", "message", formatted)
	u.println(u.config.Writer, u.info.Sprint("INFO:")+" "+formatted)
}

func (u *userOutput) Success(ctx context.Context, msg string, args ...any) {
	if !u.IsLevelEnabled(OutputNormal) {
		return
	}
	formatted := fmt.Sprintf(msg, args...)
	logging.Info(ctx, "User success message displayed", "message", formatted)
	u.println(u.config.Writer, u.success.Sprint("SUCCESS:")+" "+formatted)
}

func (u *userOutput) Warning(ctx context.Context, msg string, args ...any) {
	if !u.IsLevelEnabled(OutputNormal) {
		return
	}
	formatted := fmt.Sprintf(msg, args...)
	logging.Warn(ctx, "User warning message displayed", "message", formatted)
	u.println(u.config.ErrorWriter, u.warning.Sprint("WARNING:")+" "+formatted)
}

func (u *userOutput) Error(ctx context.Context, msg string, args ...any) {
	formatted := fmt.Sprintf(msg, args...)
	logging.Error(ctx, "User error message displayed", "message", formatted)
	u.println(u.config.ErrorWriter, u.failure.Sprint("ERROR:")+" "+formatted)
}

func (u *userOutput) Result(ctx context.Context, msg string, args ...any) {
	if !u.IsLevelEnabled(OutputNormal) {
		return
	}
	formatted := fmt.Sprintf(msg, args...)
	logging.Info(ctx, "User result displayed", "message", formatted)
	u.println(u.config.Writer, formatted)
}

func (u *userOutput) Progress(ctx context.Context, msg string, args ...any) {
	if !u.IsLevelEnabled(OutputVerbose) {
		return
	}
	formatted := fmt.Sprintf(msg, args...)
	logging.Debug(ctx, "User progress message displayed", "message", formatted)
	u.println(u.config.Writer, u.faint.Sprint(formatted))
}

func (u *userOutput) Table(_ context.Context, headers []string, rows [][]string) {
	if !u.IsLevelEnabled(OutputNormal) {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	tw := tabwriter.NewWriter(u.config.Writer, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, u.header.Sprint(strings.Join(headers, "\t")))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func (u *userOutput) JSON(_ context.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	u.println(u.config.Writer, string(data))
	return nil
}

func (u *userOutput) Raw(_ context.Context, data string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, _ = io.WriteString(u.config.Writer, data)
}

func (u *userOutput) println(w io.Writer, line string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, _ = fmt.Fprintln(w, line)
}

func (u *userOutput) SetLevel(level OutputLevel) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.config.Level = level
}

func (u *userOutput) IsLevelEnabled(level OutputLevel) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return level <= u.config.Level
}
