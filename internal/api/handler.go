// Package api serves the record store contract over HTTP:
//
//	GET    /data       all transactions
//	GET    /status     the status catalog
//	POST   /data       create, the store assigns the id
//	PUT    /data/{id}  replace the full record
//	DELETE /data/{id}  remove
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"txdash/internal/core"
	apperr "txdash/internal/errors"
	"txdash/internal/log"
	"txdash/internal/remote"
)

const maxBodyBytes = 1 << 20

type TransactionHandler struct {
	store remote.Store
	clock func() time.Time
}

func NewTransactionHandler(store remote.Store) *TransactionHandler {
	return &TransactionHandler{store: store, clock: time.Now}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.store.ListTransactions(r.Context())
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.InternalError, "failed to list transactions", err).WithDetails(err.Error()))
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.store.ListStatuses(r.Context())
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.InternalError, "failed to list statuses", err).WithDetails(err.Error()))
		return
	}
	if statuses == nil {
		statuses = []core.StatusOption{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

// Create fills in transactionDate, createBy and createOn when the body
// leaves them empty.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	tx, appErr := decodeTransaction(w, r)
	if appErr != nil {
		writeError(w, r, appErr)
		return
	}
	now := h.clock().UTC()
	if tx.TransactionDate.IsZero() {
		tx.TransactionDate = now
	}
	if tx.CreateOn.IsZero() {
		tx.CreateOn = now
	}
	if strings.TrimSpace(tx.CreateBy) == "" {
		tx.CreateBy = "system"
	}
	if appErr := h.validate(r.Context(), tx); appErr != nil {
		writeError(w, r, appErr)
		return
	}

	saved, err := h.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, storeError("failed to create transaction", err))
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.NewFields().WithTransaction(saved.ID, saved.ProductID, saved.Amount.Text(), saved.Status).ToSlice()...)
	writeJSON(w, http.StatusCreated, saved)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	tx, appErr := decodeTransaction(w, r)
	if appErr != nil {
		writeError(w, r, appErr)
		return
	}
	if tx.ID != "" && tx.ID != id {
		writeError(w, r, apperr.NewAppErrorf(apperr.InvalidInput, "body id %q does not match path id %q", tx.ID, id))
		return
	}
	if appErr := h.validate(r.Context(), tx); appErr != nil {
		writeError(w, r, appErr)
		return
	}

	saved, err := h.store.UpdateTransaction(r.Context(), id, tx)
	if err != nil {
		writeError(w, r, storeError("failed to update transaction", err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Delete answers with an empty object, like the mock server the dashboard
// was first built against.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, storeError("failed to delete transaction", err))
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func decodeTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, *apperr.AppError) {
	var tx core.Transaction
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&tx); err != nil {
		return core.Transaction{}, apperr.NewAppError(apperr.InvalidInput, "invalid request body").WithDetails(err.Error())
	}
	return tx, nil
}

// validate checks field rules and that the status exists in the catalog.
func (h *TransactionHandler) validate(ctx context.Context, tx core.Transaction) *apperr.AppError {
	if err := tx.Validate(); err != nil {
		return apperr.Wrap(apperr.ValidationFailure, "invalid transaction", err).WithDetails(err.Error())
	}
	statuses, err := h.store.ListStatuses(ctx)
	if err != nil {
		return apperr.Wrap(apperr.InternalError, "failed to list statuses", err)
	}
	for _, s := range statuses {
		if s.ID == tx.Status {
			return nil
		}
	}
	return apperr.NewAppErrorf(apperr.ValidationFailure, "invalid transaction").
		WithField("status", "unknown status").
		WithDetails(core.ErrInvalidStatus.Error())
}

func storeError(msg string, err error) *apperr.AppError {
	switch {
	case errors.Is(err, remote.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, "transaction not found", err)
	case errors.Is(err, core.ErrEmptyProductID), errors.Is(err, core.ErrEmptyProductName),
		errors.Is(err, core.ErrEmptyCustomerName), errors.Is(err, core.ErrNegativeAmount):
		return apperr.Wrap(apperr.ValidationFailure, "invalid transaction", err).WithDetails(err.Error())
	default:
		return apperr.Wrap(apperr.InternalError, msg, err).WithDetails(err.Error())
	}
}
