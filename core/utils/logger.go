package utils

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Logger is a thin printf facade over slog. A nil *Logger is safe to
// call, which keeps optional logging out of every constructor signature.
type Logger struct {
	slog *slog.Logger
}

// NewLogger builds the root logger. The level comes from
// CONSOLE_LOG_LEVEL (debug, info, warn, error), defaulting to info.
func NewLogger() *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     levelFromEnv(),
	})
	return &Logger{slog: slog.New(handler)}
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("CONSOLE_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Named returns a child logger tagging every record with a component
// attribute.
func (l *Logger) Named(component string) *Logger {
	if l == nil || l.slog == nil {
		return l
	}
	return &Logger{slog: l.slog.With(slog.String("component", component))}
}

func (l *Logger) Printf(format string, v ...any) {
	if l == nil || l.slog == nil {
		return
	}
	l.slog.Info(fmt.Sprintf(format, v...))
}

func (l *Logger) Println(v ...any) {
	if l == nil || l.slog == nil {
		return
	}
	l.slog.Info(fmt.Sprint(v...))
}

func (l *Logger) Debugf(format string, v ...any) {
	if l == nil || l.slog == nil {
		return
	}
	l.slog.Debug(fmt.Sprintf(format, v...))
}

func (l *Logger) Errorf(format string, v ...any) {
	if l == nil || l.slog == nil {
		return
	}
	l.slog.Error(fmt.Sprintf(format, v...))
}

func (l *Logger) Fatalf(format string, v ...any) {
	if l != nil && l.slog != nil {
		l.slog.Error(fmt.Sprintf(format, v...))
	}
	os.Exit(1)
}
