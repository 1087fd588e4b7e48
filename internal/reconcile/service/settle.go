package service

import (
	"context"
	"time"

	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
	"github.com/smallbiznis/possettle/internal/observability/logger"
	orderdomain "github.com/smallbiznis/possettle/internal/order/domain"
	paymentdomain "github.com/smallbiznis/possettle/internal/payment/domain"
	"github.com/smallbiznis/possettle/internal/reconcile/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Settle commits the loaded aggregate: it resolves the invoice, appends every
// pending payment and, in per-item mode, one detail row per settled line.
// On a persistence failure the working state is kept and Settle may be
// called again without duplicating rows already written.
func (e *Engine) Settle(ctx context.Context) (domain.Settlement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	mode := e.mode

	ctx, span := e.tracer.Start(ctx, "reconcile.settle")
	defer span.End()
	span.SetAttributes(attribute.String("mode", string(mode)))

	settlement, err := e.settleLocked(ctx)
	e.settleM.ObserveSettle(string(mode), err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithContext(ctx, e.log).Warn("settle failed", zap.Error(err))
		return domain.Settlement{}, err
	}
	span.SetAttributes(attribute.Int64("invoice_id", settlement.Invoice.ID))
	return settlement, nil
}

func (e *Engine) settleLocked(ctx context.Context) (domain.Settlement, error) {
	if e.agg == nil || len(e.agg.Lines) == 0 {
		return domain.Settlement{}, domain.ErrEmptyOrder
	}
	if len(e.pending) == 0 {
		return domain.Settlement{}, domain.ErrNoPayments
	}
	if err := e.checkSettleableLocked(); err != nil {
		return domain.Settlement{}, err
	}

	if e.progress == nil {
		invoice, reused, err := e.invoices.Resolve(ctx, e.draftInvoiceLocked(ctx))
		if err != nil {
			return domain.Settlement{}, &domain.PersistenceError{Op: "resolve_invoice", Err: err}
		}
		e.progress = &settleProgress{invoice: invoice, reused: reused}
		e.metrics.RecordInvoice(ctx, reused)
	}
	invoice := e.progress.invoice

	if !e.progress.paymentsWritten {
		if err := e.payments.RecordPayments(ctx, e.paymentRecordsLocked(invoice.ID)); err != nil {
			return domain.Settlement{}, &domain.PersistenceError{Op: "append_payments", Err: err}
		}
		e.progress.paymentsWritten = true
	}

	if e.mode == domain.ModePerItem {
		if err := e.payments.RecordDetails(ctx, e.detailRecordsLocked(invoice.ID)); err != nil {
			return domain.Settlement{}, &domain.PersistenceError{Op: "append_details", Err: err}
		}
	}

	number, err := e.invoices.Number(invoice)
	if err != nil {
		e.log.Warn("invoice number unavailable", zap.Int64("invoice_id", invoice.ID), zap.Error(err))
	}

	paid := e.paidTotalLocked()
	settlement := domain.Settlement{
		SessionID:     e.session,
		Invoice:       invoice,
		InvoiceNumber: number,
		Reused:        e.progress.reused,
		Mode:          e.mode,
		Lines:         append([]orderdomain.Line(nil), e.agg.Lines...),
		Payments:      e.paymentViewsLocked(),
		Paid:          paid,
	}
	if e.mode == domain.ModeFull && paid > e.agg.Total {
		settlement.Change = paid - e.agg.Total
	}

	logger.WithContext(ctx, e.log).Info("settled",
		zap.Int64("invoice_id", invoice.ID),
		zap.Bool("reused", settlement.Reused),
		zap.Int("payments", len(settlement.Payments)),
		zap.Int64("paid", paid),
		zap.Int64("change", settlement.Change),
	)
	e.clearLocked()
	e.settleM.SetOwed(0)
	return settlement, nil
}

func (e *Engine) checkSettleableLocked() error {
	if e.mode == domain.ModePerItem {
		for _, paid := range e.paid {
			if !paid {
				owed, _ := e.owedLocked()
				return domain.NewAmountError(domain.ErrItemsPending, owed)
			}
		}
		return nil
	}

	balance := e.agg.Total - e.paidTotalLocked()
	if balance > 0 {
		return domain.NewAmountError(domain.ErrInsufficientPayment, balance)
	}
	if balance < 0 && !e.hasChangeMethodLocked() {
		return domain.ErrChangeRequiresCash
	}
	return nil
}

func (e *Engine) hasChangeMethodLocked() bool {
	for _, p := range e.pending {
		if e.methods.GivesChange(p.method) {
			return true
		}
	}
	return false
}

func (e *Engine) draftInvoiceLocked(ctx context.Context) invoicedomain.Invoice {
	cfg := e.pos.Get()
	now := e.clock.Now()

	payerID := e.pending[0].payerID
	method := invoicedomain.MethodMixed
	if len(e.pending) == 1 {
		method = e.pending[0].method.String()
	}

	return invoicedomain.Invoice{
		Date:       now.Format(cfg.DateLayout),
		Time:       now.Format(cfg.TimeLayout),
		OrderID:    e.agg.InvoiceOrderID(),
		PayerID:    payerID,
		PayerName:  e.customers.DisplayName(ctx, payerID, e.agg.PayerDisplay),
		TableLabel: e.agg.TableLabel,
		Subtotal:   e.agg.Subtotal,
		Tax:        e.agg.Tax,
		Total:      e.agg.Total,
		Method:     method,
	}
}

func (e *Engine) paymentRecordsLocked(invoiceID int64) []paymentdomain.PaymentRecord {
	records := make([]paymentdomain.PaymentRecord, 0, len(e.pending))
	for _, p := range e.pending {
		records = append(records, paymentdomain.PaymentRecord{
			InvoiceID: invoiceID,
			Method:    p.method,
			Amount:    p.amount,
			Reference: p.reference,
			PayerID:   p.payerID,
		})
	}
	return records
}

func (e *Engine) detailRecordsLocked(invoiceID int64) []paymentdomain.PaymentDetailRecord {
	var records []paymentdomain.PaymentDetailRecord
	orderID := e.agg.InvoiceOrderID()
	for _, p := range e.pending {
		for _, li := range p.lines {
			line := e.agg.Lines[li]
			records = append(records, paymentdomain.PaymentDetailRecord{
				InvoiceID: invoiceID,
				Method:    p.method,
				Amount:    p.amount,
				Reference: p.reference,
				OrderID:   orderID,
				PayerID:   p.payerID,
				Product:   line.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				LineTotal: line.Total,
			})
		}
	}
	return records
}
