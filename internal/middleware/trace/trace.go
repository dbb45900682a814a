// Package trace assigns request ids and logs every HTTP request of both
// servers.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"txdash/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is honoured on input and echoed on output.
	HeaderRequestID = "X-Request-ID"
)

// Middleware handles request tracing and logging
type Middleware struct {
	logger   *log.Logger
	metrics  *Metrics
	clientIP func(*http.Request) string
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	FailedRequests      int64
	AverageResponseTime int64 // in microseconds, of the last request
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithClientIP tags every request log with the address fn resolves.
func WithClientIP(fn func(*http.Request) string) Option {
	return func(m *Middleware) { m.clientIP = fn }
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *log.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	m := &Middleware{
		logger:  logger.WithComponent(log.ComponentTrace),
		metrics: &Metrics{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Middleware returns HTTP middleware for request tracing. Handlers find a
// request-scoped logger via log.FromContext.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	traced := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.serve(w, r, next)
	})
	scoped := log.Middleware(m.logger)(log.RequestIDMiddleware(func(r *http.Request) string { return GetRequestID(r.Context()) })(traced))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		scoped.ServeHTTP(w, r.WithContext(ctx))
	})
}

// serve runs next with the request logger already in the context.
func (m *Middleware) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	start := time.Now()
	ctx := r.Context()
	reqLogger := log.FromContext(ctx)

	fields := log.NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"))
	if m.clientIP != nil {
		fields = fields.WithClientIP(m.clientIP(r))
	}
	reqLogger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)

	atomic.AddInt64(&m.metrics.TotalRequests, 1)

	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	next.ServeHTTP(rw, r)

	duration := time.Since(start)
	atomic.StoreInt64(&m.metrics.AverageResponseTime, duration.Microseconds())
	if rw.statusCode >= 500 {
		atomic.AddInt64(&m.metrics.FailedRequests, 1)
	}

	level := slog.LevelInfo
	if rw.statusCode >= 400 && rw.statusCode < 500 {
		level = slog.LevelWarn
	} else if rw.statusCode >= 500 {
		level = slog.LevelError
	}

	fields = fields.WithHTTPResponse(rw.statusCode, duration.Milliseconds(), rw.statusCode < 400)
	fields[log.FieldDurationHuman] = duration.String()
	reqLogger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:       atomic.LoadInt64(&m.metrics.TotalRequests),
		FailedRequests:      atomic.LoadInt64(&m.metrics.FailedRequests),
		AverageResponseTime: atomic.LoadInt64(&m.metrics.AverageResponseTime),
	}
}
