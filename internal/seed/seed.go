// Package seed reads the YAML fixture used to populate an empty record
// store (memory backend and the reference record store server).
package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"txdash/internal/core"
)

// Data is the decoded seed file.
type Data struct {
	Statuses     []core.StatusOption
	Transactions []core.Transaction
}

type file struct {
	Statuses []struct {
		ID   int    `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"statuses"`
	Transactions []record `yaml:"transactions"`
}

type record struct {
	ID              string `yaml:"id"`
	ProductID       string `yaml:"productID"`
	ProductName     string `yaml:"productName"`
	Amount          string `yaml:"amount"`
	CustomerName    string `yaml:"customerName"`
	Status          int    `yaml:"status"`
	TransactionDate string `yaml:"transactionDate"`
	CreateBy        string `yaml:"createBy"`
	CreateOn        string `yaml:"createOn"`
}

// Default is used when no seed file is present: the two-entry catalog the
// dashboard was built around and no transactions.
func Default() Data {
	return Data{
		Statuses: []core.StatusOption{
			{ID: 0, Name: "Lunas"},
			{ID: 1, Name: "Belum Lunas"},
		},
	}
}

// LoadFile reads a seed file. A missing file yields Default() and no error.
func LoadFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Data{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes seed YAML.
func Parse(raw []byte) (Data, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Data{}, fmt.Errorf("decode seed yaml: %w", err)
	}

	var data Data
	for _, s := range f.Statuses {
		data.Statuses = append(data.Statuses, core.StatusOption{ID: s.ID, Name: strings.TrimSpace(s.Name)})
	}
	if len(data.Statuses) == 0 {
		data.Statuses = Default().Statuses
	}

	for i, r := range f.Transactions {
		tx, err := r.toTransaction()
		if err != nil {
			return Data{}, fmt.Errorf("transaction %d (%s): %w", i, r.ID, err)
		}
		data.Transactions = append(data.Transactions, tx)
	}
	return data, nil
}

func (r record) toTransaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseTime(r.TransactionDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transactionDate: %w", err)
	}
	createOn := date
	if strings.TrimSpace(r.CreateOn) != "" {
		if createOn, err = parseTime(r.CreateOn); err != nil {
			return core.Transaction{}, fmt.Errorf("createOn: %w", err)
		}
	}
	createBy := r.CreateBy
	if createBy == "" {
		createBy = "system"
	}
	tx := core.Transaction{
		ID:              strings.TrimSpace(r.ID),
		ProductID:       r.ProductID,
		ProductName:     r.ProductName,
		Amount:          amount,
		CustomerName:    r.CustomerName,
		Status:          r.Status,
		TransactionDate: date,
		CreateBy:        createBy,
		CreateOn:        createOn,
	}
	return tx, tx.Validate()
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
