package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction. The zero value logs at info level to
// STDERR.
type Options struct {
	Level      string // debug, info, warn or error
	File       string // optional rotating log file, in addition to STDERR
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Quiet      bool // drop STDERR output, e.g. while a TUI owns the terminal
}

// New returns a logger configured with a text handler.
// STDOUT is left alone: the beacon generator may use it as a data channel.
func New(opts Options) *slog.Logger {
	var outs []io.Writer
	if !opts.Quiet {
		outs = append(outs, os.Stderr)
	}
	if opts.File != "" {
		outs = append(outs, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		})
	}
	out := io.Discard
	if len(outs) > 0 {
		out = io.MultiWriter(outs...)
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

type ctxKey struct{}

// NewContext returns a copy of ctx with the logger stored.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves a logger from ctx or returns slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
