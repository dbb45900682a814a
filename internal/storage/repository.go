// Package storage is the SQLite persistence of the reference record store.
// It implements remote.Store so the dashboard can also use it directly
// (DATA_BACKEND=sqlite).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"txdash/internal/core"
	"txdash/internal/log"
	"txdash/internal/remote"
	"txdash/internal/seed"
)

// Ensure interface conformance
var _ remote.Store = (*SQLiteRepository)(nil)

const timeLayout = time.RFC3339Nano

const selectTransactions = `SELECT id, product_id, product_name, customer_name, amount, status,
	transaction_date, create_by, create_on FROM transactions`

type SQLiteRepository struct {
	db     *sql.DB
	newID  func() string
	logger *log.Logger
}

type Option func(*SQLiteRepository)

func WithLogger(l *log.Logger) Option {
	return func(r *SQLiteRepository) { r.logger = l.WithComponent(log.ComponentStorage) }
}

// WithIDGenerator replaces uuid.NewString for new records.
func WithIDGenerator(fn func() string) Option {
	return func(r *SQLiteRepository) { r.newID = fn }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:     db,
		newID:  uuid.NewString,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers, for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions+` ORDER BY transaction_date DESC, create_on DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListStatuses(ctx context.Context) ([]core.StatusOption, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	out := []core.StatusOption{}
	for rows.Next() {
		var s core.StatusOption
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statuses: %w", err)
	}
	return out, nil
}

// CreateTransaction stores tx under a new UUID, ignoring any id it carries.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}
	tx.ID = r.newID()
	if err := insertTransaction(ctx, r.db, tx); err != nil {
		return core.Transaction{}, err
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldTransactionID, tx.ID,
		log.FieldProductID, tx.ProductID,
		log.FieldAmount, tx.Amount.Text(),
		log.FieldStatus, tx.Status)
	return tx, nil
}

// UpdateTransaction overwrites every field of id with tx.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}
	tx.ID = id
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
		product_id = ?, product_name = ?, customer_name = ?, amount = ?, status = ?,
		transaction_date = ?, create_by = ?, create_on = ?
		WHERE id = ?`,
		tx.ProductID, tx.ProductName, tx.CustomerName, tx.Amount.Text(), tx.Status,
		formatTime(tx.TransactionDate), tx.CreateBy, formatTime(tx.CreateOn), id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	} else if n == 0 {
		return core.Transaction{}, fmt.Errorf("update %s: %w", id, remote.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "Transaction updated in SQLite",
		log.FieldTransactionID, id,
		log.FieldStatus, tx.Status)
	return tx, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	} else if n == 0 {
		return fmt.Errorf("delete %s: %w", id, remote.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "Transaction deleted from SQLite", log.FieldTransactionID, id)
	return nil
}

// Seed fills an empty database from data. It is a no-op when any status or
// transaction already exists. Seeded records keep their ids; missing ids
// get a UUID.
func (r *SQLiteRepository) Seed(ctx context.Context, data seed.Data) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM statuses) + (SELECT COUNT(*) FROM transactions)`).Scan(&count); err != nil {
		return false, fmt.Errorf("count rows: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer dbtx.Rollback()

	for _, s := range data.Statuses {
		if _, err := dbtx.ExecContext(ctx, `INSERT INTO statuses (id, name) VALUES (?, ?)`, s.ID, s.Name); err != nil {
			return false, fmt.Errorf("seed status %d: %w", s.ID, err)
		}
	}
	for _, tx := range data.Transactions {
		if tx.ID == "" {
			tx.ID = r.newID()
		}
		if err := insertTransaction(ctx, dbtx, tx); err != nil {
			return false, err
		}
	}
	if err := dbtx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}

	r.logger.InfoContext(ctx, "Database seeded",
		"statuses", len(data.Statuses),
		log.FieldCount, len(data.Transactions))
	return true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func insertTransaction(ctx context.Context, db execer, tx core.Transaction) error {
	_, err := db.ExecContext(ctx, `INSERT INTO transactions
		(id, product_id, product_name, customer_name, amount, status, transaction_date, create_by, create_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.ProductID, tx.ProductName, tx.CustomerName, tx.Amount.Text(), tx.Status,
		formatTime(tx.TransactionDate), tx.CreateBy, formatTime(tx.CreateOn))
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
	}
	return nil
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		tx             core.Transaction
		amount         string
		txDate, create string
	)
	if err := row.Scan(&tx.ID, &tx.ProductID, &tx.ProductName, &tx.CustomerName, &amount, &tx.Status,
		&txDate, &tx.CreateBy, &create); err != nil {
		if err == sql.ErrNoRows {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	var err error
	if tx.Amount, err = core.ParseAmount(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount %q: %w", tx.ID, amount, err)
	}
	if tx.TransactionDate, err = time.Parse(timeLayout, txDate); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date: %w", tx.ID, err)
	}
	if tx.CreateOn, err = time.Parse(timeLayout, create); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s createOn: %w", tx.ID, err)
	}
	return tx, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
