package repository

import (
	"context"
	"sync"

	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/invoice/domain"
	"github.com/smallbiznis/possettle/pkg/repository"
)

type invoiceCodec struct{}

func (invoiceCodec) Header() []string {
	return []string{
		"ID_FACTURA", "FECHA", "HORA", "ID_PEDIDO", "CEDULA_CLIENTE", "NOMBRE_CLIENTE",
		"MESA", "SUBTOTAL", "IVA", "TOTAL", "METODO_PAGO",
	}
}

func (invoiceCodec) Encode(inv *domain.Invoice) []string {
	return []string{
		repository.Itoa(inv.ID),
		inv.Date,
		inv.Time,
		repository.Itoa(inv.OrderID),
		inv.PayerID,
		inv.PayerName,
		inv.TableLabel,
		repository.Itoa(inv.Subtotal),
		repository.Itoa(inv.Tax),
		repository.Itoa(inv.Total),
		inv.Method,
	}
}

func (invoiceCodec) Decode(fields []string) (*domain.Invoice, error) {
	if err := repository.Require(fields, 11); err != nil {
		return nil, err
	}
	inv := &domain.Invoice{
		Date:       repository.Field(fields, 1),
		Time:       repository.Field(fields, 2),
		PayerID:    repository.Field(fields, 4),
		PayerName:  repository.Field(fields, 5),
		TableLabel: repository.Field(fields, 6),
		Method:     repository.Field(fields, 10),
	}

	var err error
	if inv.ID, err = repository.Int64(fields, 0, "ID_FACTURA"); err != nil {
		return nil, err
	}
	if inv.OrderID, err = repository.Int64(fields, 3, "ID_PEDIDO"); err != nil {
		return nil, err
	}
	if inv.Subtotal, err = repository.Int64(fields, 7, "SUBTOTAL"); err != nil {
		return nil, err
	}
	if inv.Tax, err = repository.Int64(fields, 8, "IVA"); err != nil {
		return nil, err
	}
	if inv.Total, err = repository.Int64(fields, 9, "TOTAL"); err != nil {
		return nil, err
	}
	return inv, nil
}

type ledger struct {
	mu    sync.Mutex
	store repository.Repository[domain.Invoice]
}

func Provide(cfg config.Config) domain.Ledger {
	return NewFileLedger(cfg.Path(cfg.InvoicesFile))
}

func NewFileLedger(path string) domain.Ledger {
	return &ledger{store: repository.ProvideStore[domain.Invoice](path, invoiceCodec{})}
}

func (l *ledger) FindByOrderID(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	return l.store.FindOne(ctx, func(inv *domain.Invoice) bool { return inv.OrderID == orderID })
}

func (l *ledger) FindByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return l.store.FindOne(ctx, func(inv *domain.Invoice) bool { return inv.ID == id })
}

func (l *ledger) List(ctx context.Context) ([]*domain.Invoice, error) {
	return l.store.Find(ctx, nil)
}

func (l *ledger) Create(ctx context.Context, invoice *domain.Invoice) error {
	if invoice == nil {
		return repository.ErrNilRecord
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var maxID int64
	if _, err := l.store.Find(ctx, func(inv *domain.Invoice) bool {
		if inv.ID > maxID {
			maxID = inv.ID
		}
		return false
	}); err != nil {
		return err
	}

	record := *invoice
	record.ID = maxID + 1
	if err := l.store.Create(ctx, &record); err != nil {
		return err
	}
	invoice.ID = record.ID
	return nil
}
