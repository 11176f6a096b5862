package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	gormlogger "gorm.io/gorm/logger"
)

// Setup installs the process-wide slog handler.
func Setup(level, format string) *slog.Logger {
	return SetupWriter(os.Stdout, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// GormLevel maps a config string to gorm's logger level.
func GormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// Component returns the default logger tagged with a component name.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

// HTTP returns a logger for request handling
func HTTP() *slog.Logger {
	return Component("http")
}

// DB returns a logger for database operations
func DB() *slog.Logger {
	return Component("db")
}

// Cache returns a logger for cache operations
func Cache() *slog.Logger {
	return Component("cache")
}

// Events returns a logger for activity and messaging
func Events() *slog.Logger {
	return Component("events")
}

// CLI returns a logger for command line operations
func CLI() *slog.Logger {
	return Component("cli")
}
