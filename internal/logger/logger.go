package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	global = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
)

// InitLogging sends logs to the file at path, or to the console when path
// is empty. A file that cannot be opened falls back to the console.
func InitLogging(path string) {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var openErr error
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = f
		}
		openErr = err
	}
	set(zerolog.New(out).With().Timestamp().Logger())
	if openErr != nil {
		Get().Error().Err(openErr).Str("path", path).Msg("open log file, logging to console")
	}
}

// SetLevel sets the global level from its name. Unknown names keep the
// current level.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

// SetOutput replaces the logger with one writing JSON to w.
func SetOutput(w io.Writer) {
	set(zerolog.New(w).With().Timestamp().Logger())
}

func set(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// Get returns the application logger.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// WithContext returns ctx carrying l.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

func fromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return Get()
}

func InfoLog(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Info().Msgf(format, args...)
}

func ErrorLog(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Error().Msgf(format, args...)
}

func DebugLog(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Debug().Msgf(format, args...)
}

func WarnLog(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Warn().Msgf(format, args...)
}
