package api

import (
	"encoding/json"
	"net/http"

	apperr "txdash/internal/errors"
	"txdash/internal/log"
)

// Error is the body of every non-2xx answer.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error Error `json:"error"`
}

// writeJSON writes data as the bare body; the contract has no envelope on
// success.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, appErr *apperr.AppError) {
	if appErr.HTTPStatus() >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.NewFields().WithError(appErr).ToSlice()...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	json.NewEncoder(w).Encode(errorResponse{Error: Error{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
		Fields:  appErr.Fields,
	}})
}
