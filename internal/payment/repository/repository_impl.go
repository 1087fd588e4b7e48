package repository

import (
	"context"

	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/payment/domain"
	"github.com/smallbiznis/possettle/pkg/repository"
)

type paymentCodec struct{}

func (paymentCodec) Header() []string {
	return []string{"ID_FACTURA", "METODO", "MONTO", "REFERENCIA", "CEDULA_PAGADOR"}
}

func (paymentCodec) Encode(p *domain.PaymentRecord) []string {
	return []string{
		repository.Itoa(p.InvoiceID),
		p.Method.String(),
		repository.Itoa(p.Amount),
		p.Reference,
		p.PayerID,
	}
}

// Decode accepts the older four column rows written without a payer id.
func (paymentCodec) Decode(fields []string) (*domain.PaymentRecord, error) {
	if err := repository.Require(fields, 4); err != nil {
		return nil, err
	}
	invoiceID, err := repository.Int64(fields, 0, "ID_FACTURA")
	if err != nil {
		return nil, err
	}
	amount, err := repository.Int64(fields, 2, "MONTO")
	if err != nil {
		return nil, err
	}
	return &domain.PaymentRecord{
		InvoiceID: invoiceID,
		Method:    domain.NormalizeMethod(repository.Field(fields, 1)),
		Amount:    amount,
		Reference: repository.Field(fields, 3),
		PayerID:   repository.Field(fields, 4),
	}, nil
}

type repo struct {
	store repository.Repository[domain.PaymentRecord]
}

func Provide(cfg config.Config) domain.Repository {
	return NewFileRepository(cfg.Path(cfg.PaymentsFile))
}

func NewFileRepository(path string) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.PaymentRecord](path, paymentCodec{})}
}

func (r *repo) Append(ctx context.Context, records []domain.PaymentRecord) error {
	rows := make([]*domain.PaymentRecord, 0, len(records))
	for i := range records {
		rows = append(rows, &records[i])
	}
	return r.store.BatchCreate(ctx, rows)
}

func (r *repo) FindByInvoiceID(ctx context.Context, invoiceID int64) ([]domain.PaymentRecord, error) {
	rows, err := r.store.Find(ctx, func(p *domain.PaymentRecord) bool { return p.InvoiceID == invoiceID })
	if err != nil {
		return nil, err
	}
	out := make([]domain.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}
