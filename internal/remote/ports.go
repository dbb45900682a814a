// Package remote defines the ports through which the dashboard talks to the
// record store. Implementations live in the subpackages (httpstore, memory)
// and in internal/storage for direct SQLite access.
package remote

import (
	"context"
	"errors"

	"txdash/internal/core"
)

// ErrNotFound is returned (wrapped) when the record store has no record
// with the requested id.
var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters.
type (
	// TransactionReader loads the full transaction collection (GET /data).
	TransactionReader interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// StatusReader loads the status catalog (GET /status).
	StatusReader interface {
		ListStatuses(ctx context.Context) ([]core.StatusOption, error)
	}

	// TransactionWriter performs confirmed mutations. Implementations return
	// the record as stored, including the server-assigned id on create.
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	// Store is the full record store contract.
	Store interface {
		TransactionReader
		StatusReader
		TransactionWriter
	}
)
