// Package session owns one dashboard session: the record cache, the dialog,
// the mutation pipeline and the memoized grouping. Every rendering surface
// works through a *Session passed in explicitly.
package session

import (
	"context"
	"sync"
	"time"

	"txdash/internal/core"
	"txdash/internal/dialog"
	apperr "txdash/internal/errors"
	"txdash/internal/grouping"
	"txdash/internal/log"
	"txdash/internal/mutation"
	"txdash/internal/records"
	"txdash/internal/remote"
)

type Config struct {
	Grouping grouping.Options
	Actor    string
	Clock    func() time.Time
	Logger   *log.Logger
}

type Session struct {
	store    *records.Store
	dialog   *dialog.Machine
	pipeline *mutation.Pipeline
	memo     *grouping.Memo
	logger   *log.Logger

	mu      sync.RWMutex
	loadErr error
}

func New(rs remote.Store, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	store := records.New(rs, rs, logger)
	dlg := dialog.New()
	opts := []mutation.Option{mutation.WithDialog(dlg)}
	if cfg.Actor != "" {
		opts = append(opts, mutation.WithActor(cfg.Actor))
	}
	if cfg.Clock != nil {
		opts = append(opts, mutation.WithClock(cfg.Clock))
	}

	s := &Session{
		store:    store,
		dialog:   dlg,
		pipeline: mutation.New(rs, store, logger, opts...),
		memo:     grouping.NewMemo(cfg.Grouping),
		logger:   logger.WithComponent(log.ComponentDialog),
	}
	dlg.OnTransition(func(from, to dialog.State) {
		s.logger.Debug("Dialog transition",
			log.FieldDialogFrom, from.String(),
			log.FieldDialogTo, to.String())
	})
	return s
}

// Load fetches transactions and statuses. A failure is kept for LoadError
// until a later Load succeeds.
func (s *Session) Load(ctx context.Context) error {
	err := s.store.Load(ctx)
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
	return err
}

func (s *Session) Loaded() bool { return s.store.Loaded() }

func (s *Session) LoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Index returns the Year > Month grouping, recomputed only when the record
// list changed since the last call.
func (s *Session) Index() grouping.Index {
	return s.memo.Get(s.store)
}

func (s *Session) Transactions() []core.Transaction { return s.store.List() }

func (s *Session) Transaction(id string) (core.Transaction, bool) { return s.store.Get(id) }

func (s *Session) Statuses() []core.StatusOption { return s.store.Statuses() }

func (s *Session) StatusName(code int) string { return s.store.StatusName(code) }

func (s *Session) Dialog() dialog.State { return s.dialog.State() }

func (s *Session) OpenAdd() { s.dialog.OpenAdd() }

func (s *Session) OpenEdit(id string) error {
	tx, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.dialog.OpenEdit(tx)
	return nil
}

func (s *Session) OpenView(id string) error {
	tx, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.dialog.OpenView(tx)
	return nil
}

func (s *Session) Cancel() error { return s.dialog.Cancel() }

func (s *Session) Close() error { return s.dialog.Close() }

// Submit saves the open form: a create from Add, an update of the payload
// from Edit. The dialog closes only when the record store confirms.
func (s *Session) Submit(ctx context.Context, d mutation.Draft) (core.Transaction, error) {
	st := s.dialog.State()
	switch st.Kind {
	case dialog.Add:
		return s.pipeline.Create(ctx, d)
	case dialog.Edit:
		return s.pipeline.Update(ctx, st.Payload.ID, d)
	default:
		return core.Transaction{}, apperr.Wrap(apperr.InvalidInput, "No form is open.", dialog.ErrInvalidTransition)
	}
}

// Delete removes id after gate confirms. A detail view showing the deleted
// record is closed.
func (s *Session) Delete(ctx context.Context, id string, gate mutation.ConfirmGate) (bool, error) {
	deleted, err := s.pipeline.Delete(ctx, id, gate)
	if err != nil || !deleted {
		return deleted, err
	}
	if st := s.dialog.State(); st.Kind == dialog.View && st.Payload != nil && st.Payload.ID == id {
		if err := s.dialog.Close(); err != nil {
			s.logger.WarnContext(ctx, "Detail view not closed after delete", log.FieldError, err)
		}
	}
	return true, nil
}

func (s *Session) lookup(id string) (core.Transaction, error) {
	tx, ok := s.store.Get(id)
	if !ok {
		return core.Transaction{}, apperr.NewAppErrorf(apperr.NotFound, "Transaction %s not found.", id).WithField("id", id)
	}
	return tx, nil
}
