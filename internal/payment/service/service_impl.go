package service

import (
	"context"

	"github.com/smallbiznis/possettle/internal/config"
	paymentdomain "github.com/smallbiznis/possettle/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Repo    paymentdomain.Repository
	Details paymentdomain.DetailRepository
}

type Service struct {
	log         *zap.Logger
	repo        paymentdomain.Repository
	details     paymentdomain.DetailRepository
	detailAudit bool
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		log:         p.Log.Named("payment.service"),
		repo:        p.Repo,
		details:     p.Details,
		detailAudit: p.Config.PaymentDetailAudit,
	}
}

func (s *Service) RecordPayments(ctx context.Context, records []paymentdomain.PaymentRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if record.InvoiceID <= 0 {
			return paymentdomain.ErrInvalidInvoiceID
		}
		if record.Amount <= 0 {
			return paymentdomain.ErrInvalidAmount
		}
	}

	if err := s.repo.Append(ctx, records); err != nil {
		s.log.Error("failed to record payments",
			zap.Int64("invoice_id", records[0].InvoiceID),
			zap.Int("count", len(records)),
			zap.Error(err),
		)
		return err
	}
	s.log.Info("payments recorded",
		zap.Int64("invoice_id", records[0].InvoiceID),
		zap.Int("count", len(records)),
	)
	return nil
}

func (s *Service) RecordDetails(ctx context.Context, records []paymentdomain.PaymentDetailRecord) error {
	if !s.detailAudit || len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if record.InvoiceID <= 0 {
			return paymentdomain.ErrInvalidInvoiceID
		}
	}

	if err := s.details.Append(ctx, records); err != nil {
		s.log.Error("failed to record payment details",
			zap.Int64("invoice_id", records[0].InvoiceID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID int64) ([]paymentdomain.PaymentRecord, error) {
	if invoiceID <= 0 {
		return nil, paymentdomain.ErrInvalidInvoiceID
	}
	return s.repo.FindByInvoiceID(ctx, invoiceID)
}

func (s *Service) ListDetailsByInvoice(ctx context.Context, invoiceID int64) ([]paymentdomain.PaymentDetailRecord, error) {
	if invoiceID <= 0 {
		return nil, paymentdomain.ErrInvalidInvoiceID
	}
	return s.details.FindByInvoiceID(ctx, invoiceID)
}
