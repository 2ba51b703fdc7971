package internal

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ServiceName tags every log record so the dashboard's lines can be told
// apart from the backend's in a shared log sink.
const ServiceName = "rongsox-dashboard"

// ParseLogLevel reads LOG_LEVEL. It takes the slog names in any case, with
// an optional offset such as "warn+2". An empty value means info.
func ParseLogLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// NewLogger writes text in development and JSON everywhere else. An unknown
// level falls back to info and says so in the first record.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	logLevel, levelErr := ParseLogLevel(level)

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler).With("service", ServiceName)
	if levelErr != nil {
		logger.Warn("Unknown log level, using info", "error", levelErr)
	}
	return logger
}
