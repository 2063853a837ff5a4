package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a configured slog.Logger. With LOG_FILE set, records are
// also written to a size-rotated file.
func NewLogger(cfg *Config) *slog.Logger {
	var out io.Writer = os.Stdout
	opts := &slog.HandlerOptions{AddSource: true}
	format := ""
	if cfg != nil {
		opts.Level = parseLevel(cfg.LogLevel)
		format = cfg.LogFormat
		if cfg.LogFile != "" {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    64,
				MaxBackups: 5,
				MaxAge:     30,
				Compress:   true,
			})
		}
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
