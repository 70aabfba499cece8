package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// LogConfig is the subset of configuration the logger needs.
type LogConfig interface {
	LogSettings() (level, format string)
}

// NewLogger builds the service logger and installs it as the slog default.
func NewLogger(cfg LogConfig) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogSettings())
}

// NewCLILogger is NewLogger writing to w instead of stdout, so that logs do not
// interleave with command output such as the run summary table.
func NewCLILogger(cfg LogConfig, w io.Writer) *slog.Logger {
	level, format := cfg.LogSettings()
	opts := &slog.HandlerOptions{Level: enabledLevel(sharedobs.NewLogger(level, format))}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// enabledLevel returns the lowest standard level logger emits.
func enabledLevel(logger *slog.Logger) slog.Level {
	for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if logger.Enabled(context.Background(), lvl) {
			return lvl
		}
	}
	return slog.LevelError
}
