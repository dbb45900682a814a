// Package grouping derives the year/month view of the record cache.
//
// Build is a pure function of the transaction list. Memo caches the last
// result and recomputes only when the source reports a new version.
package grouping

import (
	"sort"
	"sync"
	"time"

	"txdash/internal/core"
)

// Options controls how dates are bucketed and labelled.
type Options struct {
	// Location is the zone year and month are read in. Defaults to time.Local.
	Location *time.Location
	// MonthName labels a month. Defaults to time.Month.String.
	MonthName func(time.Month) string
}

type (
	// Index is the full grouping: years newest first.
	Index struct {
		Years []Year
	}

	Year struct {
		Year   int
		Months []Month
	}

	// Month holds the transactions of one calendar month in the order of
	// the source list (newest first).
	Month struct {
		Month        time.Month
		Name         string
		Transactions []core.Transaction
	}
)

// Build groups txs by year and month. Years are ordered numerically
// descending, months by calendar index within a year.
func Build(txs []core.Transaction, opts Options) Index {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	name := opts.MonthName
	if name == nil {
		name = time.Month.String
	}

	buckets := map[int]map[time.Month][]core.Transaction{}
	for _, tx := range txs {
		d := tx.TransactionDate.In(loc)
		y, m := d.Year(), d.Month()
		if buckets[y] == nil {
			buckets[y] = map[time.Month][]core.Transaction{}
		}
		buckets[y][m] = append(buckets[y][m], tx)
	}

	years := make([]int, 0, len(buckets))
	for y := range buckets {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	idx := Index{Years: make([]Year, 0, len(years))}
	for _, y := range years {
		year := Year{Year: y}
		for m := time.January; m <= time.December; m++ {
			if items, ok := buckets[y][m]; ok {
				year.Months = append(year.Months, Month{Month: m, Name: name(m), Transactions: items})
			}
		}
		idx.Years = append(idx.Years, year)
	}
	return idx
}

// Count returns the number of transactions across all buckets.
func (idx Index) Count() int {
	n := 0
	for _, y := range idx.Years {
		n += y.Count()
	}
	return n
}

func (y Year) Count() int {
	n := 0
	for _, m := range y.Months {
		n += len(m.Transactions)
	}
	return n
}

// YearKeys lists the years in display order.
func (idx Index) YearKeys() []int {
	keys := make([]int, len(idx.Years))
	for i, y := range idx.Years {
		keys[i] = y.Year
	}
	return keys
}

func (idx Index) Empty() bool {
	return len(idx.Years) == 0
}

// Source is what Memo derives from: a versioned transaction list.
type Source interface {
	Version() uint64
	List() []core.Transaction
}

// Memo remembers the Index built for the last seen source version.
type Memo struct {
	opts Options

	mu      sync.Mutex
	version uint64
	valid   bool
	index   Index
}

func NewMemo(opts Options) *Memo {
	return &Memo{opts: opts}
}

// Get returns the cached Index, rebuilding it if src changed since the last
// call. Callers must treat the result as read-only.
func (m *Memo) Get(src Source) Index {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := src.Version()
	if m.valid && v == m.version {
		return m.index
	}
	m.index = Build(src.List(), m.opts)
	m.version = v
	m.valid = true
	return m.index
}
