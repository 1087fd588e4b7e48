package domain

import "strings"

type Origin string

const (
	OriginOrder Origin = "order"
	OriginTable Origin = "table"
)

// Line is one product entry of an order. Amounts are in minor currency units.
type Line struct {
	ProductID string
	Name      string
	Quantity  int64
	UnitPrice int64
	Total     int64
}

// Aggregate is the read-only view of one order, or of every order open on a
// table, assembled for a single reconciliation session. Subtotal, Tax and
// Total are the stored sums and are not recomputed from Lines.
type Aggregate struct {
	Origin      Origin
	OrderID     int64
	TableNumber int64
	OrderIDs    []int64

	Date         string
	Time         string
	TableLabel   string
	PayerDisplay string
	PayerIDs     []string

	Lines    []Line
	Subtotal int64
	Tax      int64
	Total    int64
}

func (a *Aggregate) IsTable() bool {
	return a != nil && a.Origin == OriginTable
}

// InvoiceOrderID is the order id an invoice is keyed by: the order id for a
// single order load and 0 for a table.
func (a *Aggregate) InvoiceOrderID() int64 {
	if a == nil || a.Origin != OriginOrder {
		return 0
	}
	return a.OrderID
}

// AllowsPayer reports whether the normalized payer id belongs to one of the
// contributing orders.
func (a *Aggregate) AllowsPayer(payerID string) bool {
	if a == nil {
		return false
	}
	for _, id := range a.PayerIDs {
		if id == payerID {
			return true
		}
	}
	return false
}

// Row is a raw line of the orders file. Columns are parsed only when a row
// is selected, so unrelated damage elsewhere in the file never blocks a load.
type Row struct {
	Fields []string
}

func (r *Row) Field(i int) string {
	if r == nil || i < 0 || i >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[i])
}
