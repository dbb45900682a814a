// Package records holds the client-side record cache: the authoritative
// in-memory list of transactions and the status catalog it was loaded with.
package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"txdash/internal/catalog"
	"txdash/internal/core"
	apperr "txdash/internal/errors"
	"txdash/internal/log"
	"txdash/internal/remote"
)

var (
	ErrDuplicateID = errors.New("duplicate transaction id")
	ErrUnknownID   = errors.New("unknown transaction id")
	ErrMissingID   = errors.New("transaction has no id")
)

// Op selects what Apply does with a Result.
type Op int

const (
	Insert Op = iota + 1
	Replace
	Remove
)

func (o Op) String() string {
	switch o {
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Result is a confirmed mutation to splice into the cache. Record is used by
// Insert and Replace, ID by Remove.
type Result struct {
	Op     Op
	Record core.Transaction
	ID     string
}

// Store is the record cache. Reads return copies; the only writers are Load
// and Apply.
type Store struct {
	transactions remote.TransactionReader
	statuses     remote.StatusReader
	logger       *log.Logger

	mu      sync.RWMutex
	items   []core.Transaction
	catalog *catalog.Catalog
	loaded  bool
	version uint64
}

func New(transactions remote.TransactionReader, statuses remote.StatusReader, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		transactions: transactions,
		statuses:     statuses,
		logger:       logger.WithComponent(log.ComponentRecords),
		catalog:      catalog.Empty(),
	}
}

// Load fetches transactions and the status catalog concurrently. Both must
// succeed; otherwise the store is left exactly as it was and a load_failure
// AppError is returned.
func (s *Store) Load(ctx context.Context) error {
	var (
		txs  []core.Transaction
		opts []core.StatusOption
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if txs, err = s.transactions.ListTransactions(gctx); err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if opts, err = s.statuses.ListStatuses(gctx); err != nil {
			return fmt.Errorf("load statuses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Initial load failed", log.FieldError, err)
		return apperr.Wrap(apperr.LoadFailure, "failed to fetch data from the record store", err)
	}

	cat, err := catalog.New(opts)
	if err != nil {
		return apperr.Wrap(apperr.LoadFailure, "record store returned an invalid status catalog", err)
	}
	seen := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if tx.ID == "" {
			return apperr.Wrap(apperr.LoadFailure, "record store returned a transaction without id", ErrMissingID)
		}
		if _, dup := seen[tx.ID]; dup {
			return apperr.Wrap(apperr.LoadFailure, "record store returned duplicate ids", fmt.Errorf("%w: %s", ErrDuplicateID, tx.ID))
		}
		seen[tx.ID] = struct{}{}
	}

	sorted := append([]core.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TransactionDate.After(sorted[j].TransactionDate)
	})

	s.mu.Lock()
	s.items = sorted
	s.catalog = cat
	s.loaded = true
	s.version++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Record store loaded",
		log.FieldCount, len(sorted),
		"statuses", cat.Len())
	return nil
}

// List returns the transactions, most recent first.
func (s *Store) List() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.items...)
}

func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return core.Transaction{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Version changes every time the list changes. Derived views use it to know
// when to recompute.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// StatusName resolves a status code, falling back to catalog.FallbackName.
func (s *Store) StatusName(code int) string {
	return s.Catalog().Name(code)
}

// Statuses returns the catalog entries in catalog order.
func (s *Store) Statuses() []core.StatusOption {
	return s.Catalog().Options()
}

// Catalog returns the loaded catalog. It is immutable and safe to share.
func (s *Store) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Apply splices a confirmed mutation into the list. Inserts go to the front,
// replacements keep their position, removals cut the record out.
func (s *Store) Apply(res Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch res.Op {
	case Insert:
		if res.Record.ID == "" {
			return ErrMissingID
		}
		if s.indexOf(res.Record.ID) >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateID, res.Record.ID)
		}
		items := make([]core.Transaction, 0, len(s.items)+1)
		items = append(items, res.Record)
		s.items = append(items, s.items...)
	case Replace:
		i := s.indexOf(res.Record.ID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownID, res.Record.ID)
		}
		items := append([]core.Transaction(nil), s.items...)
		items[i] = res.Record
		s.items = items
	case Remove:
		i := s.indexOf(res.ID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownID, res.ID)
		}
		items := make([]core.Transaction, 0, len(s.items)-1)
		items = append(items, s.items[:i]...)
		s.items = append(items, s.items[i+1:]...)
	default:
		return fmt.Errorf("unsupported op %v", res.Op)
	}
	s.version++
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
