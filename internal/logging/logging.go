package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New создает логгер с уровнем из LOG_LEVEL и форматом json или console
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel переводит уровень вида INFO/debug в zerolog.Level; неизвестный - info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithRequestID возвращает контекст с дочерним логгером, помеченным request_id
func WithRequestID(ctx context.Context, base zerolog.Logger, requestID string) context.Context {
	logger := base.With().Str("request_id", requestID).Logger()
	return logger.WithContext(ctx)
}

// FromContext возвращает логгер запроса или отключенный логгер
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
