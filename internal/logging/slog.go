// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gogpu/gg"
)

// ParseLevel converts a string log level to slog.Level. Unknown values map
// to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing text records to console and, if file is
// non-nil, to file as well. Timestamps are RFC3339 in UTC.
func NewLogger(console, file io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, opts))
	}
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, opts))
	}
	return slog.New(NewMultiHandler(handlers...))
}

// Setup installs the default logger and hands it to the gg renderer. If
// logFile is set, records are appended to it as well; the returned closer
// releases that file.
func Setup(level, logFile string) (*slog.Logger, io.Closer, error) {
	var file *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
	}

	var logger *slog.Logger
	if file != nil {
		logger = NewLogger(os.Stdout, file, level)
	} else {
		// A nil *os.File in the io.Writer would not compare equal to nil.
		logger = NewLogger(os.Stdout, nil, level)
	}
	slog.SetDefault(logger)
	gg.SetLogger(logger)

	logger.Info("Logging initialized", "level", level)
	if file == nil {
		return logger, nopCloser{}, nil
	}
	return logger, file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
