package http

import (
	"errors"
	"net/http"

	"txdash/internal/dialog"
	apperr "txdash/internal/errors"
	"txdash/internal/log"
	"txdash/internal/mutation"
)

// asAppError classifies err for the dashboard. Dialog misuse is the
// operator's input, anything unclassified is ours.
func asAppError(err error) *apperr.AppError {
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}
	if errors.Is(err, dialog.ErrInvalidTransition) {
		return apperr.Wrap(apperr.InvalidInput, "That action is not available right now.", err)
	}
	return apperr.Wrap(apperr.InternalError, "Something went wrong.", err)
}

// renderFailure shows err on the dashboard with the status its code maps
// to. A validation failure keeps the submitted draft and marks its fields;
// anything else keeps the dialog as it was and shows a notice.
func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, err error, draft *mutation.Draft) {
	appErr := asAppError(err)
	ctx := r.Context()
	logger := log.FromContext(ctx)

	status := appErr.HTTPStatus()
	if status >= 500 {
		logger.ErrorContext(ctx, "Dashboard action failed", log.NewFields().WithError(appErr).ToSlice()...)
	} else {
		logger.DebugContext(ctx, "Dashboard action rejected", log.NewFields().WithError(appErr).ToSlice()...)
	}

	page := NewPage(s.sess, s.locale).Status(status)
	if draft != nil {
		page.Form(*draft, appErr.Fields)
	}
	if appErr.Code != apperr.ValidationFailure {
		page.Notice(appErr.Message)
	}
	page.Render(w, r, s.templates)
}

// redirectHome ends a successful form post.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
