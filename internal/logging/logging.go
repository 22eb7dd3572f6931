// SPDX-License-Identifier: MPL-2.0

// Package logging builds rig's structured diagnostics logger. Diagnostics
// go to stderr so they never mix with task output on stdout.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/charmbracelet/lipgloss"
)

const (
	// FormatText renders human-readable lines.
	FormatText = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON = "json"

	timeFormat = "15:04:05"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means warn.
	Level string
	// Format is FormatText or FormatJSON. Empty means text.
	Format string
	// Writer receives log lines. Nil means os.Stderr.
	Writer io.Writer
}

// New builds a logger from opts.
func New(opts Options) (*charmlog.Logger, error) {
	level := charmlog.WarnLevel
	if opts.Level != "" {
		parsed, err := charmlog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		Prefix:          "rig",
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
	})

	switch opts.Format {
	case "", FormatText:
		logger.SetFormatter(charmlog.TextFormatter)
		logger.SetStyles(styles())
	case FormatJSON:
		logger.SetFormatter(charmlog.JSONFormatter)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *charmlog.Logger {
	return charmlog.NewWithOptions(io.Discard, charmlog.Options{Level: charmlog.FatalLevel})
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *charmlog.Logger) context.Context {
	return charmlog.WithContext(ctx, logger)
}

// FromContext returns the logger stored in ctx, or a discarding logger when
// none was stored.
func FromContext(ctx context.Context) *charmlog.Logger {
	if logger, ok := ctx.Value(charmlog.ContextKey).(*charmlog.Logger); ok && logger != nil {
		return logger
	}
	return Discard()
}

func styles() *charmlog.Styles {
	s := charmlog.DefaultStyles()
	s.Levels[charmlog.DebugLevel] = lipgloss.NewStyle().SetString("DEBUG").Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	s.Levels[charmlog.WarnLevel] = lipgloss.NewStyle().SetString("WARN").Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	s.Levels[charmlog.ErrorLevel] = lipgloss.NewStyle().SetString("ERROR").Bold(true).Foreground(lipgloss.Color("#EF4444"))
	s.Keys["task"] = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	return s
}
