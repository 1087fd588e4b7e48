package domain

import "context"

type Repository interface {
	Append(ctx context.Context, records []PaymentRecord) error
	FindByInvoiceID(ctx context.Context, invoiceID int64) ([]PaymentRecord, error)
}

type DetailRepository interface {
	Append(ctx context.Context, records []PaymentDetailRecord) error
	FindByInvoiceID(ctx context.Context, invoiceID int64) ([]PaymentDetailRecord, error)
}
