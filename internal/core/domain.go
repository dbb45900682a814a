package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// Transaction is a single sale record as exchanged with the record store.
	Transaction struct {
		ID              string    `json:"id,omitempty"`
		ProductID       string    `json:"productID"`
		ProductName     string    `json:"productName"`
		Amount          Amount    `json:"amount"`
		CustomerName    string    `json:"customerName"`
		Status          int       `json:"status"`
		TransactionDate time.Time `json:"transactionDate"`
		CreateBy        string    `json:"createBy"`
		CreateOn        time.Time `json:"createOn"`
	}

	// StatusOption is one entry of the status catalog.
	StatusOption struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
)

var (
	ErrEmptyProductID    = errors.New("empty product id")
	ErrEmptyProductName  = errors.New("empty product name")
	ErrEmptyCustomerName = errors.New("empty customer name")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrEmptyStatusName   = errors.New("empty status name")
)

// UnmarshalJSON accepts the id as a JSON string or number and keeps it as
// text. Mock stores such as json-server hand out numeric ids.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.ID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		t.ID = ""
	case raw[0] == '"':
		return json.Unmarshal(raw, &t.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("transaction id: want string or number, got %s", raw)
		}
		t.ID = n.String()
	}
	return nil
}

// Validate checks the caller-editable fields. Identity and provenance
// fields are owned by the record store and are not checked here.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ProductID) == "" {
		return ErrEmptyProductID
	}
	if strings.TrimSpace(t.ProductName) == "" {
		return ErrEmptyProductName
	}
	if strings.TrimSpace(t.CustomerName) == "" {
		return ErrEmptyCustomerName
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (s StatusOption) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyStatusName
	}
	return nil
}
