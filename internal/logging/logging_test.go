package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"WARN":   slog.LevelWarn,
		"error":  slog.LevelError,
		"":       slog.LevelInfo,
		"chatty": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remoteid.log")
	l := New(Options{Level: "debug", File: path, MaxSizeMB: 1, Quiet: true})
	l.Debug("hostapd reload requested", "reloads", 3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "reloads=3") {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := New(Options{})
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatalf("logger not stored in context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger")
	}
}

func TestQuietWithoutFile(t *testing.T) {
	l := New(Options{Quiet: true})
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug enabled at default level")
	}
	l.Info("discarded")
}
