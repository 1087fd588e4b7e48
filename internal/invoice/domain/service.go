package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Resolve returns the invoice already keyed by draft.OrderID, or creates
	// draft when none exists or the draft has no order id.
	Resolve(ctx context.Context, draft Invoice) (Invoice, bool, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	// Number formats the human-readable invoice number, e.g. FAC-000012.
	Number(invoice Invoice) (string, error)
}

var (
	ErrInvalidInvoiceID = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
)
