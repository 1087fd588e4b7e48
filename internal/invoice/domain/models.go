// Package domain contains the invoice ledger records.
package domain

// MethodMixed labels an invoice settled with more than one payment.
const MethodMixed = "MIXED"

// Invoice is one row of the invoice ledger. OrderID is 0 for invoices that
// originate from a table aggregate.
type Invoice struct {
	ID         int64
	Date       string
	Time       string
	OrderID    int64
	PayerID    string
	PayerName  string
	TableLabel string
	Subtotal   int64
	Tax        int64
	Total      int64
	Method     string
}
