package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	apperr "txdash/internal/errors"
	"txdash/internal/log"
	"txdash/internal/middleware/ratelimit"
	"txdash/internal/middleware/security"
	"txdash/internal/middleware/trace"
	"txdash/internal/remote"
)

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the reference record store.
type Server struct {
	router  *mux.Router
	server  *http.Server
	limiter *ratelimit.Limiter
	logger  *log.Logger
	port    string
}

type Options struct {
	Logger *log.Logger
	// WritesPerMinute bounds writes per client; zero uses the limiter default.
	WritesPerMinute int
}

func NewServer(store remote.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentAPI)

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.WritesPerMinute})
	clientIP := security.NewClientIP()
	tracer := trace.NewMiddleware(logger, trace.WithClientIP(clientIP.Extract))
	handler := NewTransactionHandler(store)

	router := mux.NewRouter()
	router.Use(tracer.Middleware)
	router.Use(security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware)
	router.Use(security.NoStore)
	router.Use(limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperr.NewAppError(apperr.RateLimited, "too many writes, retry in a minute"))
	}))

	router.HandleFunc("/data", handler.List).Methods(http.MethodGet)
	router.HandleFunc("/data", handler.Create).Methods(http.MethodPost)
	router.HandleFunc("/data/{id}", handler.Update).Methods(http.MethodPut)
	router.HandleFunc("/data/{id}", handler.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/status", handler.Statuses).Methods(http.MethodGet)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if p, ok := store.(Pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": "database unavailable"})
				return
			}
		}
		m := tracer.GetMetrics()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "healthy",
			"requests":      m.TotalRequests,
			"rate_limited":  limiter.GetMetrics().TotalHits,
			"server_errors": m.FailedRequests,
		})
	}).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperr.NewAppErrorf(apperr.NotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: Error{Code: string(apperr.InvalidInput), Message: "method not allowed"}})
	})

	return &Server{
		router:  router,
		limiter: limiter,
		logger:  logger,
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr (":0" picks a free port) and serves in the
// background. It returns the bound port.
func (s *Server) Start(addr string) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.port = strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting record store", "port", s.port)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Record store server failed", log.FieldError, err)
		}
	}()
	return s.port, nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down record store")
	s.limiter.Stop()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// BaseURL is where a started server can be reached locally.
func (s *Server) BaseURL() string {
	return "http://localhost:" + s.port
}
