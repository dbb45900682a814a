// Package memory is an in-process record store. It backs the dashboard when
// DATA_BACKEND=memory and doubles as the remote in tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"txdash/internal/core"
	"txdash/internal/remote"
	"txdash/internal/seed"
)

// Ensure interface conformance
var _ remote.Store = (*Store)(nil)

// Op names a remote call, used for failure injection and call counting.
type Op string

const (
	OpList     Op = "list"
	OpStatuses Op = "statuses"
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
)

type Store struct {
	mu       sync.Mutex
	statuses []core.StatusOption
	items    []core.Transaction
	seq      int
	newID    func() string
	failures map[Op]error
	calls    map[Op]int
}

func New(statuses []core.StatusOption, txs []core.Transaction) *Store {
	s := &Store{
		statuses: append([]core.StatusOption(nil), statuses...),
		items:    append([]core.Transaction(nil), txs...),
		failures: map[Op]error{},
		calls:    map[Op]int{},
	}
	s.newID = s.nextSequentialID
	return s
}

// NewFromFile seeds the store from a YAML seed file; a missing file yields
// the default catalog and no transactions.
func NewFromFile(path string) (*Store, error) {
	data, err := seed.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(data.Statuses, data.Transactions), nil
}

// SetIDGenerator replaces the "t1", "t2", ... id sequence.
func (s *Store) SetIDGenerator(fn func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newID = fn
}

// FailWith makes every subsequent call of op return err. A nil err clears it.
func (s *Store) FailWith(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how many times op was invoked, failed calls included.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpList); err != nil {
		return nil, err
	}
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *Store) ListStatuses(ctx context.Context) ([]core.StatusOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpStatuses); err != nil {
		return nil, err
	}
	return append([]core.StatusOption(nil), s.statuses...), nil
}

// CreateTransaction stores tx under a fresh id, ignoring any id it carries.
func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpCreate); err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}
	tx.ID = s.newID()
	if s.indexOf(tx.ID) >= 0 {
		return core.Transaction{}, fmt.Errorf("id %q already taken", tx.ID)
	}
	s.items = append(s.items, tx)
	return tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpUpdate); err != nil {
		return core.Transaction{}, err
	}
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("update %s: %w", id, remote.ErrNotFound)
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}
	tx.ID = id
	s.items[i] = tx
	return tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpDelete); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, remote.ErrNotFound)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// enter records the call and returns the injected failure, if any.
// Callers hold s.mu.
func (s *Store) enter(ctx context.Context, op Op) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.failures[op]
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) nextSequentialID() string {
	for {
		s.seq++
		id := "t" + strconv.Itoa(s.seq)
		if s.indexOf(id) < 0 {
			return id
		}
	}
}
