package repository

import (
	"context"

	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/payment/domain"
	"github.com/smallbiznis/possettle/pkg/repository"
)

type detailCodec struct{}

func (detailCodec) Header() []string {
	return []string{
		"ID_FACTURA", "METODO", "MONTO", "REFERENCIA", "ID_PEDIDO",
		"CEDULA_PAGADOR", "PRODUCTO", "CANTIDAD", "PRECIO", "TOTAL_LINEA",
	}
}

func (detailCodec) Encode(d *domain.PaymentDetailRecord) []string {
	return []string{
		repository.Itoa(d.InvoiceID),
		d.Method.String(),
		repository.Itoa(d.Amount),
		d.Reference,
		repository.Itoa(d.OrderID),
		d.PayerID,
		d.Product,
		repository.Itoa(d.Quantity),
		repository.Itoa(d.UnitPrice),
		repository.Itoa(d.LineTotal),
	}
}

func (detailCodec) Decode(fields []string) (*domain.PaymentDetailRecord, error) {
	if err := repository.Require(fields, 10); err != nil {
		return nil, err
	}
	d := &domain.PaymentDetailRecord{
		Method:    domain.NormalizeMethod(repository.Field(fields, 1)),
		Reference: repository.Field(fields, 3),
		PayerID:   repository.Field(fields, 5),
		Product:   repository.Field(fields, 6),
	}

	var err error
	if d.InvoiceID, err = repository.Int64(fields, 0, "ID_FACTURA"); err != nil {
		return nil, err
	}
	if d.Amount, err = repository.Int64(fields, 2, "MONTO"); err != nil {
		return nil, err
	}
	if d.OrderID, err = repository.Int64(fields, 4, "ID_PEDIDO"); err != nil {
		return nil, err
	}
	if d.Quantity, err = repository.Int64(fields, 7, "CANTIDAD"); err != nil {
		return nil, err
	}
	if d.UnitPrice, err = repository.Int64(fields, 8, "PRECIO"); err != nil {
		return nil, err
	}
	if d.LineTotal, err = repository.Int64(fields, 9, "TOTAL_LINEA"); err != nil {
		return nil, err
	}
	return d, nil
}

type detailRepo struct {
	store repository.Repository[domain.PaymentDetailRecord]
}

func ProvideDetails(cfg config.Config) domain.DetailRepository {
	return NewFileDetailRepository(cfg.Path(cfg.PaymentDetailsFile))
}

func NewFileDetailRepository(path string) domain.DetailRepository {
	return &detailRepo{store: repository.ProvideStore[domain.PaymentDetailRecord](path, detailCodec{})}
}

func (r *detailRepo) Append(ctx context.Context, records []domain.PaymentDetailRecord) error {
	rows := make([]*domain.PaymentDetailRecord, 0, len(records))
	for i := range records {
		rows = append(rows, &records[i])
	}
	return r.store.BatchCreate(ctx, rows)
}

func (r *detailRepo) FindByInvoiceID(ctx context.Context, invoiceID int64) ([]domain.PaymentDetailRecord, error) {
	rows, err := r.store.Find(ctx, func(d *domain.PaymentDetailRecord) bool { return d.InvoiceID == invoiceID })
	if err != nil {
		return nil, err
	}
	out := make([]domain.PaymentDetailRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}
