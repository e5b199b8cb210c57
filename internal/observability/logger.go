package observability

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeySessionID ctxKey = "session_id"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// NewLogger builds a zap logger writing JSON (or console) to stderr.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		cfg.Encoding = "console"
	}
	return cfg.Build()
}

// SetLogger replaces the process-wide logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithFields returns a logger with additional fields.
func WithFields(fields ...zap.Field) *zap.Logger {
	return Logger().With(fields...)
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// WithSessionID stores the wizard session id in the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, sessionID)
}

// LoggerFromContext adds request_id and session_id if present.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	l := Logger()
	if reqID, _ := ctx.Value(ctxKeyRequestID).(string); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if sessID, _ := ctx.Value(ctxKeySessionID).(string); sessID != "" {
		l = l.With(zap.String("session_id", sessID))
	}
	return l
}
