package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txdash/internal/backend"
	"txdash/internal/config"
	"txdash/internal/core"
	"txdash/internal/log"
	"txdash/internal/remote/memory"
	"txdash/internal/session"
)

func newStore() *memory.Store {
	return memory.New(
		[]core.StatusOption{{ID: 0, Name: "Paid"}, {ID: 1, Name: "Unpaid"}},
		[]core.Transaction{
			{
				ID: "t1", ProductID: "P1", ProductName: "Kopi", CustomerName: "Andi",
				Amount: core.MustAmount("15000"), Status: 0,
				TransactionDate: time.Date(2024, time.May, 1, 14, 30, 0, 0, time.UTC),
			},
			{
				ID: "t2", ProductID: "P2", ProductName: "Teh", CustomerName: "Budi",
				Amount: core.MustAmount("8000"), Status: 1,
				TransactionDate: time.Date(2023, time.March, 9, 8, 0, 0, 0, time.UTC),
			},
		},
	)
}

type result struct {
	out, errOut string
	err         error
}

func run(t *testing.T, store *memory.Store, stdin string, args ...string) result {
	t.Helper()
	cfg := config.Load()
	cfg.Locale = "en"
	cfg.Timezone = "UTC"
	cfg.DataBackend = "memory"

	var out, errOut bytes.Buffer
	app := &App{
		Config: cfg,
		In:     strings.NewReader(stdin),
		Out:    &out,
		Open: func(context.Context, *config.Config) (*backend.BackendResult, error) {
			return &backend.BackendResult{Backend: store}, nil
		},
	}
	root := NewRootCommand(app)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func TestList(t *testing.T) {
	res := run(t, newStore(), "", "list")
	require.NoError(t, res.err)

	assert.Contains(t, res.out, "2024 (1)")
	assert.Contains(t, res.out, "May")
	assert.Contains(t, res.out, "Kopi")
	assert.Contains(t, res.out, "Unpaid")
	assert.Less(t, strings.Index(res.out, "2024"), strings.Index(res.out, "2023"))
}

func TestList_LoadFailureAborts(t *testing.T) {
	store := newStore()
	store.FailWith(memory.OpList, errors.New("connection refused"))

	res := run(t, store, "", "list")
	require.Error(t, res.err)
	assert.Contains(t, res.errOut, "failed to fetch data from the record store")
}

func TestShow(t *testing.T) {
	res := run(t, newStore(), "", "show", "t1")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Product Name:")
	assert.Contains(t, res.out, "Kopi")
	assert.Contains(t, res.out, "May 1, 2024 at 2:30 PM")

	res = run(t, newStore(), "", "show", "nope")
	assert.Error(t, res.err)
}

func TestAdd(t *testing.T) {
	store := newStore()

	res := run(t, store, "", "add",
		"--product-id", "P9", "--product-name", "Roti", "--customer", "Citra",
		"--amount", "5000", "--status", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Created t3")

	txs, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "system", txs[2].CreateBy)
}

func TestAdd_ValidationFailure(t *testing.T) {
	store := newStore()

	res := run(t, store, "", "add", "--product-name", "Roti", "--customer", "Citra", "--amount", "abc", "--status", "1")
	require.Error(t, res.err)
	assert.Contains(t, res.errOut, "amount: Amount must be a number")
	assert.Contains(t, res.errOut, "productID: Product ID is required")
	assert.Equal(t, 0, store.Calls(memory.OpCreate))
}

func TestEdit_KeepsUnsetFields(t *testing.T) {
	store := newStore()

	res := run(t, store, "", "edit", "t1", "--amount", "20000")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Updated t1")

	txs, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20000", txs[0].Amount.Text())
	assert.Equal(t, "Kopi", txs[0].ProductName)
	assert.Equal(t, 0, txs[0].Status)
}

func TestDelete(t *testing.T) {
	t.Run("declined at the prompt", func(t *testing.T) {
		store := newStore()
		res := run(t, store, "n\n", "delete", "t1")
		require.NoError(t, res.err)
		assert.Contains(t, res.out, "Delete t1 (Kopi, Rp 15,000)? [y/N]")
		assert.Contains(t, res.out, "Aborted.")
		assert.Equal(t, 0, store.Calls(memory.OpDelete))
	})

	t.Run("no input declines", func(t *testing.T) {
		store := newStore()
		res := run(t, store, "", "delete", "t1")
		require.NoError(t, res.err)
		assert.Contains(t, res.out, "Aborted.")
	})

	t.Run("confirmed at the prompt", func(t *testing.T) {
		store := newStore()
		res := run(t, store, "yes\n", "delete", "t1")
		require.NoError(t, res.err)
		assert.Contains(t, res.out, "Deleted t1")
		assert.Equal(t, 1, store.Calls(memory.OpDelete))
	})

	t.Run("--yes skips the prompt", func(t *testing.T) {
		store := newStore()
		res := run(t, store, "", "delete", "--yes", "t2")
		require.NoError(t, res.err)
		assert.NotContains(t, res.out, "[y/N]")
		assert.Contains(t, res.out, "Deleted t2")
	})

	t.Run("unknown id", func(t *testing.T) {
		res := run(t, newStore(), "", "delete", "--yes", "nope")
		assert.Error(t, res.err)
	})
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.xlsx")

	res := run(t, newStore(), "", "export", "--out", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Wrote 2 transactions in 2 sheets")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	res = run(t, newStore(), "", "export")
	assert.Error(t, res.err)
}

func TestVersion(t *testing.T) {
	res := run(t, newStore(), "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Version:")
}

func TestInvalidLocaleFlag(t *testing.T) {
	res := run(t, newStore(), "", "--locale", "fr", "list")
	require.Error(t, res.err)
	assert.Contains(t, res.errOut, "invalid locale")
}

func TestWorkspaceCloseLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: "test"})
	ws := &workspace{
		sess: session.New(newStore(), session.Config{Logger: logger}),
		backend: &backend.BackendResult{
			Backend: newStore(),
			Cleanup: func() error { return errors.New("db locked") },
		},
		logger: logger,
	}

	// Nothing is open, so closing the view is rejected.
	ws.closeView()
	ws.Close()

	out := buf.String()
	assert.Contains(t, out, `"msg":"Detail view not closed"`)
	assert.Contains(t, out, `"msg":"Backend cleanup failed"`)
	assert.Contains(t, out, "db locked")
}
