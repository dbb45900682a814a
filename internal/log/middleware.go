package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := NewContext(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewContext returns a copy of ctx carrying logger
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context, falling back to the
// process default
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return New(Config{Handler: slog.Default().Handler(), Component: "unknown"})
}

// RequestIDMiddleware adds request ID to logger context
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)
			logger := FromContext(r.Context()).With(FieldRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// MutationLogger logs outcomes of record store mutations with a fixed field set
type MutationLogger struct {
	logger *Logger
}

func NewMutationLogger(logger *Logger) *MutationLogger {
	return &MutationLogger{logger: logger.WithComponent(ComponentMutation)}
}

// LogSucceeded logs a confirmed create, update or delete
func (ml *MutationLogger) LogSucceeded(ctx context.Context, op, id, productID, amount string, status int) {
	fields := NewFields().
		WithTransaction(id, productID, amount, status).
		WithOperation(op)
	ml.logger.InfoContext(ctx, "Mutation confirmed by record store", fields.ToSlice()...)
}

// LogFailed logs a rejected mutation. The record cache is untouched when this fires.
func (ml *MutationLogger) LogFailed(ctx context.Context, op, id string, err error) {
	fields := NewFields().
		WithOperation(op).
		WithError(err)
	if id != "" {
		fields[FieldTransactionID] = id
	}
	ml.logger.WarnContext(ctx, "Mutation failed", fields.ToSlice()...)
}
