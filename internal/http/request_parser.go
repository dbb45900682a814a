// Package http serves the server-rendered dashboard.
//
// This file turns submitted forms into mutation drafts and confirmation
// answers.

package http

import (
	"net/http"
	"net/url"
	"strings"

	apperr "txdash/internal/errors"
	"txdash/internal/mutation"
)

const maxFormBytes = 64 << 10

// ParseDraft reads the add/edit form. Values are sanitized but not
// validated; validation belongs to the mutation pipeline.
func ParseDraft(form url.Values) mutation.Draft {
	return mutation.Draft{
		ProductID:    sanitizeInput(form.Get(mutation.FieldProductID)),
		ProductName:  sanitizeInput(form.Get(mutation.FieldProductName)),
		CustomerName: sanitizeInput(form.Get(mutation.FieldCustomerName)),
		Amount:       sanitizeInput(form.Get(mutation.FieldAmount)),
		Status:       sanitizeInput(form.Get(mutation.FieldStatus)),
	}
}

// ParseConfirm reports whether the operator ticked the delete confirmation.
func ParseConfirm(form url.Values) bool {
	switch strings.ToLower(strings.TrimSpace(form.Get("confirm"))) {
	case "yes", "y", "true", "on", "1":
		return true
	}
	return false
}

// parseForm bounds the body and parses it.
func parseForm(w http.ResponseWriter, r *http.Request) *apperr.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return apperr.Wrap(apperr.InvalidInput, "Invalid form submission.", err)
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
