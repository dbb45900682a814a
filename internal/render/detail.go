package render

import "txdash/internal/core"

// StatusNamer resolves a status code to its label.
type StatusNamer func(code int) string

// Field is one row of the detail view. The table is explicit: id and
// provenance (createBy, createOn) are never listed.
type Field struct {
	Key    string
	Label  string
	Render func(tx core.Transaction, names StatusNamer) string
}

type Row struct {
	Key   string
	Label string
	Value string
}

type labels struct {
	productID, productName, customer, amount, status, date string
}

var (
	labelsID = labels{
		productID:   "ID Produk",
		productName: "Nama Produk",
		customer:    "Pelanggan",
		amount:      "Jumlah",
		status:      "Status",
		date:        "Tanggal Transaksi",
	}
	labelsEN = labels{
		productID:   "Product ID",
		productName: "Product Name",
		customer:    "Customer",
		amount:      "Amount",
		status:      "Status",
		date:        "Transaction Date",
	}
)

func (l *Locale) DetailFields() []Field {
	return []Field{
		{Key: "productID", Label: l.labels.productID, Render: func(tx core.Transaction, _ StatusNamer) string {
			return tx.ProductID
		}},
		{Key: "productName", Label: l.labels.productName, Render: func(tx core.Transaction, _ StatusNamer) string {
			return tx.ProductName
		}},
		{Key: "customerName", Label: l.labels.customer, Render: func(tx core.Transaction, _ StatusNamer) string {
			return tx.CustomerName
		}},
		{Key: "amount", Label: l.labels.amount, Render: func(tx core.Transaction, _ StatusNamer) string {
			return l.Amount(tx.Amount)
		}},
		{Key: "status", Label: l.labels.status, Render: func(tx core.Transaction, names StatusNamer) string {
			return names(tx.Status)
		}},
		{Key: "transactionDate", Label: l.labels.date, Render: func(tx core.Transaction, _ StatusNamer) string {
			return l.DateTime(tx.TransactionDate)
		}},
	}
}

// Detail renders tx through DetailFields.
func (l *Locale) Detail(tx core.Transaction, names StatusNamer) []Row {
	fields := l.DetailFields()
	rows := make([]Row, len(fields))
	for i, f := range fields {
		rows[i] = Row{Key: f.Key, Label: f.Label, Value: f.Render(tx, names)}
	}
	return rows
}

// Headers are the table column labels, in DetailFields order.
func (l *Locale) Headers() []string {
	fields := l.DetailFields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label
	}
	return out
}
