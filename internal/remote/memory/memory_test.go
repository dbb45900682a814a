package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"txdash/internal/core"
	"txdash/internal/remote"
)

func sampleTx(productID string) core.Transaction {
	return core.Transaction{
		ProductID:       productID,
		ProductName:     "Kopi",
		CustomerName:    "Budi",
		Amount:          core.MustAmount("15000"),
		TransactionDate: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New([]core.StatusOption{{ID: 0, Name: "Lunas"}}, []core.Transaction{{ID: "t1", ProductID: "P-0"}})

	created, err := s.CreateTransaction(ctx, sampleTx("P-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "t2" {
		t.Fatalf("expected t1 to be skipped, got id %q", created.ID)
	}

	created.Status = 1
	updated, err := s.UpdateTransaction(ctx, created.ID, created)
	if err != nil || updated.Status != 1 {
		t.Fatalf("update: %+v %v", updated, err)
	}

	if err := s.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	txs, _ := s.ListTransactions(ctx)
	if len(txs) != 1 || txs[0].ID != "t2" {
		t.Fatalf("unexpected list %+v", txs)
	}

	if err := s.DeleteTransaction(ctx, "ghost"); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.UpdateTransaction(ctx, "ghost", sampleTx("P")); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	boom := errors.New("boom")

	s.FailWith(OpCreate, boom)
	if _, err := s.CreateTransaction(ctx, sampleTx("P-1")); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	s.FailWith(OpCreate, nil)
	if _, err := s.CreateTransaction(ctx, sampleTx("P-1")); err != nil {
		t.Fatalf("expected success after clearing, got %v", err)
	}
	if s.Calls(OpCreate) != 2 {
		t.Fatalf("calls=%d", s.Calls(OpCreate))
	}
}

func TestMemoryStoreCustomIDs(t *testing.T) {
	s := New(nil, nil)
	s.SetIDGenerator(func() string { return "t9" })
	got, err := s.CreateTransaction(context.Background(), sampleTx("P"))
	if err != nil || got.ID != "t9" {
		t.Fatalf("unexpected %+v %v", got, err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing seed: %v", err)
	}
	statuses, _ := s.ListStatuses(context.Background())
	if len(statuses) != 2 {
		t.Fatalf("expected default catalog, got %v", statuses)
	}

	path := filepath.Join(dir, "seed.yaml")
	content := "statuses:\n  - {id: 3, name: Batal}\ntransactions:\n  - {id: a, productID: P, productName: N, customerName: C, amount: '10', status: 3, transactionDate: 2024-02-02}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	txs, _ := s.ListTransactions(context.Background())
	if len(txs) != 1 || txs[0].Status != 3 {
		t.Fatalf("unexpected seeded list %+v", txs)
	}
}
