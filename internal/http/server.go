package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"txdash/internal/log"
	"txdash/internal/middleware/security"
	"txdash/internal/middleware/trace"
	"txdash/internal/render"
	"txdash/internal/session"
	appweb "txdash/web"
)

// Server is the dashboard: one session rendered as HTML.
type Server struct {
	http.Server
	templates *template.Template
	sess      *session.Session
	locale    *render.Locale
	logger    *log.Logger
	tracer    *trace.Middleware

	// loadMu serializes first loads from concurrent page views.
	loadMu       sync.Mutex
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, sess *session.Session, locale *render.Locale, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := mux.NewRouter()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		templates: t,
		sess:      sess,
		locale:    locale,
		logger:    logger,
		tracer:    trace.NewMiddleware(logger, trace.WithClientIP(security.NewClientIP().Extract)),
	}

	router.Use(s.tracer.Middleware)
	router.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	router.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		static.ServeHTTP(w, r)
	}))

	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	pages := router.NewRoute().Subrouter()
	pages.Use(security.NoStore)
	pages.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	pages.HandleFunc("/dialog/add", s.handleOpenAdd).Methods(http.MethodPost)
	pages.HandleFunc("/dialog/edit/{id}", s.handleOpenEdit).Methods(http.MethodPost)
	pages.HandleFunc("/dialog/view/{id}", s.handleOpenView).Methods(http.MethodPost)
	pages.HandleFunc("/dialog/cancel", s.handleCancel).Methods(http.MethodPost)
	pages.HandleFunc("/dialog/close", s.handleClose).Methods(http.MethodPost)
	pages.HandleFunc("/transactions", s.handleSubmit).Methods(http.MethodPost)
	pages.HandleFunc("/transactions/{id}/delete", s.handleDelete).Methods(http.MethodPost)

	return s, nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		m := s.tracer.GetMetrics()
		s.logger.Info("Dashboard shutting down",
			"requests", m.TotalRequests,
			"server_errors", m.FailedRequests)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ensureLoaded loads the session unless it already holds data. A failed
// load is retried on the next full page view.
func (s *Server) ensureLoaded(ctx context.Context) error {
	if s.sess.Loaded() {
		return nil
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.sess.Loaded() {
		return nil
	}
	return s.sess.Load(ctx)
}
