// Package rlog builds the structured logger shared by every component of
// the retrieval engine. Logging is configured once at startup from
// [config.Config] and passed down explicitly — there is no package-level
// logger singleton, per the "no global mutable state" guidance for this
// system.
package rlog

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ragd/ragd/internal/config"
)

// New builds a logger that writes structured text records to stderr when
// LogToStderr is set and, when a cache directory is configured, to a
// rotating log file. If neither applies it writes to stderr. It never
// writes to stdout, which is reserved for the JSON-RPC wire protocol.
func New(cfg *config.Config) *slog.Logger {
	var writers []io.Writer

	if cfg.LogToStderr {
		writers = append(writers, os.Stderr)
	}

	if cfg.CacheDir != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile(),
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	if len(writers) == 0 {
		// Never lose log output entirely; fall back to stderr.
		writers = append(writers, os.Stderr)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
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
