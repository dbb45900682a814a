// Package mutation coordinates create, update and delete with the record
// store. The record cache changes only after the store confirms.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"txdash/internal/core"
	apperr "txdash/internal/errors"
	"txdash/internal/log"
	"txdash/internal/records"
	"txdash/internal/remote"
)

// ConfirmGate is asked synchronously before a destructive call. Returning
// false aborts without contacting the record store.
type ConfirmGate func(tx core.Transaction) bool

// Confirmed is a gate with a fixed answer, for callers that collected the
// answer up front (a --yes flag, a submitted confirm form).
func Confirmed(answer bool) ConfirmGate {
	return func(core.Transaction) bool { return answer }
}

// Completer is closed after a successful save; satisfied by *dialog.Machine.
type Completer interface {
	Complete() error
}

type Pipeline struct {
	writer remote.TransactionWriter
	store  *records.Store
	dialog Completer
	clock  func() time.Time
	actor  string
	logger *log.Logger
	audit  *log.MutationLogger
}

type Option func(*Pipeline)

// WithDialog closes the given dialog after every confirmed save.
func WithDialog(d Completer) Option {
	return func(p *Pipeline) { p.dialog = d }
}

func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// WithActor sets the createBy stamp for new records.
func WithActor(actor string) Option {
	return func(p *Pipeline) { p.actor = actor }
}

func New(writer remote.TransactionWriter, store *records.Store, logger *log.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = log.Discard()
	}
	p := &Pipeline{
		writer: writer,
		store:  store,
		clock:  time.Now,
		actor:  "system",
		logger: logger.WithComponent(log.ComponentMutation),
		audit:  log.NewMutationLogger(logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Create validates the draft, stamps date and provenance, and inserts the
// stored record at the front of the cache.
func (p *Pipeline) Create(ctx context.Context, d Draft) (core.Transaction, error) {
	f, err := d.Normalize(p.store.Catalog())
	if err != nil {
		return core.Transaction{}, err
	}

	now := p.clock().UTC()
	tx := f.applyTo(core.Transaction{
		TransactionDate: now,
		CreateBy:        p.actor,
		CreateOn:        now,
	})

	saved, err := p.writer.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, p.fail(ctx, log.OpCreate, "", "Failed to save transaction.", err)
	}
	if saved.ID == "" {
		return core.Transaction{}, p.fail(ctx, log.OpCreate, "", "Record store did not assign an id.", records.ErrMissingID)
	}
	if err := p.store.Apply(records.Result{Op: records.Insert, Record: saved}); err != nil {
		return core.Transaction{}, p.fail(ctx, log.OpCreate, saved.ID, "Failed to save transaction.", err)
	}

	p.complete(ctx)
	p.audit.LogSucceeded(ctx, log.OpCreate, saved.ID, saved.ProductID, saved.Amount.Text(), saved.Status)
	return saved, nil
}

// Update sends the full record with the draft's fields and replaces it in
// place. Transaction date and provenance are never changed. There is no
// version check: the last write wins.
func (p *Pipeline) Update(ctx context.Context, id string, d Draft) (core.Transaction, error) {
	existing, ok := p.store.Get(id)
	if !ok {
		return core.Transaction{}, p.fail(ctx, log.OpUpdate, id, "Transaction no longer exists.", records.ErrUnknownID)
	}
	f, err := d.Normalize(p.store.Catalog())
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := p.writer.UpdateTransaction(ctx, id, f.applyTo(existing))
	if err != nil {
		return core.Transaction{}, p.fail(ctx, log.OpUpdate, id, "Failed to save transaction.", err)
	}
	if saved.ID == "" {
		saved.ID = id
	}
	if saved.ID != id {
		return core.Transaction{}, p.fail(ctx, log.OpUpdate, id, "Record store answered for another transaction.",
			fmt.Errorf("expected id %s, got %s", id, saved.ID))
	}
	if err := p.store.Apply(records.Result{Op: records.Replace, Record: saved}); err != nil {
		return core.Transaction{}, p.fail(ctx, log.OpUpdate, id, "Failed to save transaction.", err)
	}

	p.complete(ctx)
	p.audit.LogSucceeded(ctx, log.OpUpdate, id, saved.ProductID, saved.Amount.Text(), saved.Status)
	return saved, nil
}

// Delete asks gate before issuing the request. A declined confirmation
// returns (false, nil). An id unknown locally or to the record store is a
// mutation_failure.
func (p *Pipeline) Delete(ctx context.Context, id string, gate ConfirmGate) (bool, error) {
	existing, ok := p.store.Get(id)
	if !ok {
		return false, p.fail(ctx, log.OpDelete, id, "Transaction no longer exists.", records.ErrUnknownID)
	}
	if gate == nil || !gate(existing) {
		p.logger.DebugContext(ctx, "Delete not confirmed", log.FieldTransactionID, id, log.FieldOperation, log.OpConfirm)
		return false, nil
	}

	if err := p.writer.DeleteTransaction(ctx, id); err != nil {
		msg := "Failed to delete transaction."
		if errors.Is(err, remote.ErrNotFound) {
			msg = "Transaction was not found in the record store."
		}
		return false, p.fail(ctx, log.OpDelete, id, msg, err)
	}
	if err := p.store.Apply(records.Result{Op: records.Remove, ID: id}); err != nil {
		return false, p.fail(ctx, log.OpDelete, id, "Failed to delete transaction.", err)
	}

	p.audit.LogSucceeded(ctx, log.OpDelete, id, existing.ProductID, existing.Amount.Text(), existing.Status)
	return true, nil
}

func (p *Pipeline) fail(ctx context.Context, op, id, msg string, cause error) error {
	err := apperr.Wrap(apperr.MutationFailure, msg, cause)
	p.audit.LogFailed(ctx, op, id, err)
	return err
}

func (p *Pipeline) complete(ctx context.Context) {
	if p.dialog == nil {
		return
	}
	if err := p.dialog.Complete(); err != nil {
		p.logger.WarnContext(ctx, "Dialog not closed after save", log.FieldError, err)
	}
}
