package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	apperr "txdash/internal/errors"
	"txdash/internal/log"
	"txdash/internal/mutation"
)

var startedAt = time.Now()

// handleHealth performs basic liveness check
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startedAt).Round(time.Second).String(),
	})
}

// handleReady reports ready once the session holds data.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"session": "ok"}
	status, code := "ready", http.StatusOK
	if !s.sess.Loaded() {
		status, code = "not_ready", http.StatusServiceUnavailable
		checks["session"] = "not loaded"
		if err := s.sess.LoadError(); err != nil {
			checks["session"] = "load failed: " + err.Error()
		}
	}
	writeJSON(w, code, map[string]any{
		"status":       status,
		"checks":       checks,
		"transactions": len(s.sess.Transactions()),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.ensureLoaded(r.Context()); err != nil {
		appErr := asAppError(err)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard load failed",
			log.NewFields().WithError(appErr).ToSlice()...)
		renderTemplate(w, r, s.templates, "error.html", appErr.HTTPStatus(), errorPage{
			Lang:    s.locale.Code,
			Title:   pageTitle,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	NewPage(s.sess, s.locale).Render(w, r, s.templates)
}

func (s *Server) handleOpenAdd(w http.ResponseWriter, r *http.Request) {
	s.sess.OpenAdd()
	redirectHome(w, r)
}

func (s *Server) handleOpenEdit(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.OpenEdit(mux.Vars(r)["id"]); err != nil {
		s.renderFailure(w, r, err, nil)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleOpenView(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.OpenView(mux.Vars(r)["id"]); err != nil {
		s.renderFailure(w, r, err, nil)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Cancel(); err != nil {
		s.renderFailure(w, r, err, nil)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Close(); err != nil {
		s.renderFailure(w, r, err, nil)
		return
	}
	redirectHome(w, r)
}

// handleSubmit saves the open add or edit form. On failure the dialog stays
// open with what the operator typed.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if appErr := parseForm(w, r); appErr != nil {
		s.renderFailure(w, r, appErr, nil)
		return
	}
	draft := ParseDraft(r.PostForm)

	saved, err := s.sess.Submit(r.Context(), draft)
	if err != nil {
		if apperr.IsCode(err, apperr.InvalidInput) {
			s.renderFailure(w, r, err, nil)
			return
		}
		s.renderFailure(w, r, err, &draft)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction saved",
		log.FieldTransactionID, saved.ID)
	redirectHome(w, r)
}

// handleDelete removes a transaction when the form carries confirm=yes. An
// unconfirmed delete changes nothing.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if appErr := parseForm(w, r); appErr != nil {
		s.renderFailure(w, r, appErr, nil)
		return
	}
	id := mux.Vars(r)["id"]

	deleted, err := s.sess.Delete(r.Context(), id, mutation.Confirmed(ParseConfirm(r.PostForm)))
	if err != nil {
		s.renderFailure(w, r, err, nil)
		return
	}
	if !deleted {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Delete not confirmed", log.FieldTransactionID, id)
	}
	redirectHome(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
