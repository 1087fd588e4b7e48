package service

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/possettle/internal/clock"
	"github.com/smallbiznis/possettle/internal/config"
	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
	invoiceformat "github.com/smallbiznis/possettle/internal/invoice/format"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	Ledger invoicedomain.Ledger
	Pos    *config.PosConfigHolder
	Clock  clock.Clock
}

type Service struct {
	log    *zap.Logger
	ledger invoicedomain.Ledger
	pos    *config.PosConfigHolder
	clock  clock.Clock
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		log:    p.Log.Named("invoice.service"),
		ledger: p.Ledger,
		pos:    p.Pos,
		clock:  p.Clock,
	}
}

func (s *Service) Resolve(ctx context.Context, draft invoicedomain.Invoice) (invoicedomain.Invoice, bool, error) {
	if draft.OrderID > 0 {
		existing, err := s.ledger.FindByOrderID(ctx, draft.OrderID)
		if err != nil {
			return invoicedomain.Invoice{}, false, err
		}
		if existing != nil {
			s.log.Info("reusing invoice for order",
				zap.Int64("invoice_id", existing.ID),
				zap.Int64("order_id", draft.OrderID),
			)
			return *existing, true, nil
		}
	}

	draft.ID = 0
	if err := s.ledger.Create(ctx, &draft); err != nil {
		return invoicedomain.Invoice{}, false, err
	}
	s.log.Info("invoice created",
		zap.Int64("invoice_id", draft.ID),
		zap.Int64("order_id", draft.OrderID),
		zap.Int64("total", draft.Total),
		zap.String("method", draft.Method),
	)
	return draft, false, nil
}

func (s *Service) Get(ctx context.Context, id int64) (invoicedomain.Invoice, error) {
	if id <= 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}
	item, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context) ([]invoicedomain.Invoice, error) {
	items, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) Number(inv invoicedomain.Invoice) (string, error) {
	if inv.ID <= 0 {
		return "", invoicedomain.ErrInvalidInvoiceID
	}
	cfg := s.pos.Get()
	issuedAt, err := time.ParseInLocation(cfg.DateLayout, inv.Date, time.Local)
	if err != nil {
		issuedAt = s.clock.Now()
	}

	template := cfg.InvoiceNumberTemplate
	if template == "" {
		template = invoiceformat.DefaultInvoiceNumberTemplate
	}
	number, err := invoiceformat.FormatInvoiceNumber(template, issuedAt, inv.ID)
	if err != nil {
		return "", errors.Join(invoicedomain.ErrInvalidInvoiceID, err)
	}
	return number, nil
}
