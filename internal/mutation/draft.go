package mutation

import (
	"errors"
	"strconv"
	"strings"

	"txdash/internal/catalog"
	"txdash/internal/core"
	apperr "txdash/internal/errors"
)

// Form field keys, shared with the rendering layer for inline errors.
const (
	FieldProductID    = "productID"
	FieldProductName  = "productName"
	FieldCustomerName = "customerName"
	FieldAmount       = "amount"
	FieldStatus       = "status"
)

// Draft is the add/edit form as typed by the operator.
type Draft struct {
	ProductID    string
	ProductName  string
	CustomerName string
	Amount       string
	Status       string
}

// DraftFrom pre-fills the edit form from an existing record.
func DraftFrom(tx core.Transaction) Draft {
	return Draft{
		ProductID:    tx.ProductID,
		ProductName:  tx.ProductName,
		CustomerName: tx.CustomerName,
		Amount:       tx.Amount.Text(),
		Status:       strconv.Itoa(tx.Status),
	}
}

// Fields is a validated draft with the status normalized to its code.
type Fields struct {
	ProductID    string
	ProductName  string
	CustomerName string
	Amount       core.Amount
	Status       int
}

// Normalize validates the draft against the status catalog. All problems are
// reported at once in a validation_failure AppError keyed by field.
func (d Draft) Normalize(cat *catalog.Catalog) (Fields, error) {
	verr := apperr.NewAppError(apperr.ValidationFailure, "transaction is invalid")
	f := Fields{
		ProductID:    strings.TrimSpace(d.ProductID),
		ProductName:  strings.TrimSpace(d.ProductName),
		CustomerName: strings.TrimSpace(d.CustomerName),
	}

	if f.ProductID == "" {
		verr.WithField(FieldProductID, "Product ID is required")
	}
	if f.ProductName == "" {
		verr.WithField(FieldProductName, "Product name is required")
	}
	if f.CustomerName == "" {
		verr.WithField(FieldCustomerName, "Customer name is required")
	}

	amount, err := core.ParseAmount(d.Amount)
	switch {
	case errors.Is(err, core.ErrNegativeAmount):
		verr.WithField(FieldAmount, "Amount must not be negative")
	case err != nil:
		verr.WithField(FieldAmount, "Amount must be a number")
	default:
		f.Amount = amount
	}

	status, err := strconv.Atoi(strings.TrimSpace(d.Status))
	switch {
	case err != nil:
		verr.WithField(FieldStatus, "Status must be selected")
	case !cat.Has(status):
		verr.WithField(FieldStatus, "Status is not in the catalog")
	default:
		f.Status = status
	}

	if len(verr.Fields) > 0 {
		return Fields{}, verr
	}
	return f, nil
}

// applyTo copies the editable fields onto tx, leaving id, transaction date
// and provenance untouched.
func (f Fields) applyTo(tx core.Transaction) core.Transaction {
	tx.ProductID = f.ProductID
	tx.ProductName = f.ProductName
	tx.CustomerName = f.CustomerName
	tx.Amount = f.Amount
	tx.Status = f.Status
	return tx
}
