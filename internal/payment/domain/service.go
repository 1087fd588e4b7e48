package domain

import (
	"context"
	"errors"
)

type Service interface {
	RecordPayments(ctx context.Context, records []PaymentRecord) error
	// RecordDetails is a no-op when the detail audit trail is disabled.
	RecordDetails(ctx context.Context, records []PaymentDetailRecord) error
	ListByInvoice(ctx context.Context, invoiceID int64) ([]PaymentRecord, error)
	ListDetailsByInvoice(ctx context.Context, invoiceID int64) ([]PaymentDetailRecord, error)
}

var (
	ErrInvalidInvoiceID = errors.New("invalid_invoice_id")
	ErrInvalidAmount    = errors.New("invalid_amount")
)
