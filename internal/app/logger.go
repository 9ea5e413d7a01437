package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ParseLogLevel maps debug, info, warn and error to slog levels. The empty
// string selects info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", s)
	}
}

// ParseLogFormat validates a log format name. The empty string selects
// text.
func ParseLogFormat(s string) (string, error) {
	switch f := strings.ToLower(s); f {
	case "", LogFormatText:
		return LogFormatText, nil
	case LogFormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", s)
	}
}

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. Invalid
// settings fall back to info level text output.
func newLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	level, err := ParseLogLevel(levelStr)
	if err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if format, _ := ParseLogFormat(formatStr); format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
