// Package logger wraps a process-wide zerolog logger. Request and session
// scoped fields travel in the context.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu      sync.RWMutex
	base    = build(os.Stdout, zerolog.InfoLevel)
	logFile *os.File
	initial sync.Once
)

func build(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

func install(l zerolog.Logger) {
	mu.Lock()
	base = l
	log.Logger = l
	mu.Unlock()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level, info when empty or
// unknown.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// InitLogging sets up the process logger on its first call: stdout, plus
// logFilePath opened for append when set. Later calls are no-ops.
func InitLogging(logFilePath, level string) {
	initial.Do(func() {
		out := io.Writer(os.Stdout)
		if logFilePath != "" {
			f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
			if err != nil {
				fmt.Fprintf(os.Stderr, "open log file %s: %v\n", logFilePath, err)
			} else {
				logFile = f
				out = zerolog.MultiLevelWriter(os.Stdout, f)
			}
		}
		install(build(out, ParseLevel(level)))
	})
}

// Close releases the log file opened by InitLogging, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// SetOutput points the process logger at w. Tests use it to capture entries.
func SetOutput(w io.Writer, level zerolog.Level) {
	install(build(w, level))
}

// Logger returns the logger carried by ctx, else the process logger.
func Logger(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	mu.RLock()
	l := base
	mu.RUnlock()
	return &l
}

// WithLogger derives a context whose logger adds fields to every entry.
// Fields already attached to ctx are kept.
func WithLogger(ctx context.Context, fields map[string]interface{}) context.Context {
	l := Logger(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}

func DebugLog(ctx context.Context, msg string, args ...interface{}) {
	Logger(ctx).Debug().Msgf(msg, args...)
}

func InfoLog(ctx context.Context, msg string, args ...interface{}) {
	Logger(ctx).Info().Msgf(msg, args...)
}

func WarnLog(ctx context.Context, msg string, args ...interface{}) {
	Logger(ctx).Warn().Msgf(msg, args...)
}

func ErrorLog(ctx context.Context, msg string, args ...interface{}) {
	Logger(ctx).Error().Msgf(msg, args...)
}

// ErrLog logs at error level with err in the "error" field.
func ErrLog(ctx context.Context, err error, msg string, args ...interface{}) {
	Logger(ctx).Error().Err(err).Msgf(msg, args...)
}
