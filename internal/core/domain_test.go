package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"150000", "150000", nil},
		{" 12.50 ", "12.5", nil},
		{"0", "0", nil},
		{"99999999999999999999.01", "99999999999999999999.01", nil},
		{"", "", ErrInvalidAmount},
		{"abc", "", ErrInvalidAmount},
		{"12,50", "", ErrInvalidAmount},
		{"-1", "", ErrNegativeAmount},
	}
	for i, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !errors.Is(err, tc.err) {
			t.Fatalf("case %d: err=%v want %v", i, err, tc.err)
		}
		if err == nil && got.Text() != tc.want {
			t.Fatalf("case %d: got %q want %q", i, got.Text(), tc.want)
		}
	}
}

func TestAmountJSONAcceptsStringAndNumber(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"amount":"150000"}`), &tx); err != nil {
		t.Fatalf("string amount: %v", err)
	}
	if tx.Amount.Text() != "150000" {
		t.Fatalf("got %q", tx.Amount.Text())
	}
	if err := json.Unmarshal([]byte(`{"amount":2500.5}`), &tx); err != nil {
		t.Fatalf("number amount: %v", err)
	}
	if tx.Amount.Text() != "2500.5" {
		t.Fatalf("got %q", tx.Amount.Text())
	}

	out, err := json.Marshal(Transaction{Amount: MustAmount("150000")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["amount"] != "150000" {
		t.Fatalf("amount should travel as text, got %#v", raw["amount"])
	}
	if _, ok := raw["id"]; ok {
		t.Fatalf("empty id must be omitted from create bodies")
	}
}

func TestTransactionIDAcceptsStringAndNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"id":"t1"}`, "t1"},
		{`{"id":42}`, "42"},
		{`{"id":null}`, ""},
		{`{}`, ""},
	}
	for _, c := range cases {
		var tx Transaction
		if err := json.Unmarshal([]byte(c.in), &tx); err != nil {
			t.Fatalf("%s: %v", c.in, err)
		}
		if tx.ID != c.want {
			t.Fatalf("%s: got id %q want %q", c.in, tx.ID, c.want)
		}
	}

	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":true}`), &tx); err == nil {
		t.Fatalf("boolean id should be rejected")
	}

	if err := json.Unmarshal([]byte(`{"id":7,"productName":"Kopi","amount":"8000","status":1}`), &tx); err != nil {
		t.Fatalf("full record: %v", err)
	}
	if tx.ID != "7" || tx.ProductName != "Kopi" || tx.Amount.Text() != "8000" || tx.Status != 1 {
		t.Fatalf("other fields lost: %+v", tx)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ProductID:       "P-1",
		ProductName:     "Kopi",
		CustomerName:    "Budi",
		Amount:          MustAmount("15000"),
		TransactionDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		mutate func(*Transaction)
		err    error
	}{
		{func(t *Transaction) { t.ProductID = " " }, ErrEmptyProductID},
		{func(t *Transaction) { t.ProductName = "" }, ErrEmptyProductName},
		{func(t *Transaction) { t.CustomerName = "" }, ErrEmptyCustomerName},
		{func(t *Transaction) { t.Amount = Amount{Decimal: MustAmount("1").Neg()} }, ErrNegativeAmount},
	}
	for i, b := range bads {
		tx := good
		b.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, b.err) {
			t.Fatalf("case %d: got %v want %v", i, err, b.err)
		}
	}
}
