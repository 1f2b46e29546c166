package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dmccdv/parrot/internal/config"
)

func TestSetup(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "chatty"} {
		log, err := Setup(config.ServerConfig{Port: 8080, LogLevel: level})
		if err != nil {
			t.Errorf("level %q: unexpected error %v", level, err)
		}
		if log == nil {
			t.Errorf("level %q: expected a logger", level)
		}
	}
}

func TestFromContext(t *testing.T) {
	stored := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithContext(context.Background(), stored)

	if got := FromContext(ctx); got != stored {
		t.Error("expected the stored logger")
	}
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("expected the default logger when none is stored")
	}
}

func TestFromContextOrDefault(t *testing.T) {
	stored := slog.New(slog.NewTextHandler(io.Discard, nil))
	component := slog.New(slog.NewTextHandler(io.Discard, nil))

	if got := FromContextOrDefault(WithContext(context.Background(), stored), component); got != stored {
		t.Error("context logger should win")
	}
	if got := FromContextOrDefault(context.Background(), component); got != component {
		t.Error("component logger should be the fallback")
	}
	if got := FromContextOrDefault(context.Background(), nil); got != slog.Default() {
		t.Error("expected the default logger as the last resort")
	}
}
