package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	customerdomain "github.com/smallbiznis/possettle/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/possettle/internal/payment/domain"
	"github.com/smallbiznis/possettle/internal/reconcile/domain"
	"go.uber.org/zap"
)

// AddPayment validates req against the loaded aggregate and appends it to the
// pending payments. Rejections leave the working state untouched.
func (e *Engine) AddPayment(ctx context.Context, req domain.PaymentRequest) (domain.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payment, err := e.acceptLocked(req)
	if err != nil {
		e.settleM.ObserveRejection("add_payment", err)
		e.log.Debug("payment rejected", zap.String("method", req.Method), zap.Error(err))
		return e.snapshotLocked(), err
	}

	for _, li := range payment.lines {
		e.paid[li] = true
	}
	copy(e.selected, e.paid)
	e.pending = append(e.pending, payment)

	e.log.Info("payment accepted",
		zap.String("method", payment.method.String()),
		zap.Int64("amount", payment.amount),
		zap.String("mode", string(e.mode)),
		zap.Ints("lines", payment.lines),
	)
	e.metrics.RecordPaymentAccepted(ctx, payment.method.String(), string(e.mode), payment.amount)
	return e.snapshotLocked(), nil
}

func (e *Engine) acceptLocked(req domain.PaymentRequest) (pendingPayment, error) {
	if e.agg == nil {
		return pendingPayment{}, domain.ErrNoActiveOrder
	}
	if e.progress != nil {
		return pendingPayment{}, domain.ErrSettleInProgress
	}

	policy, err := e.methods.Lookup(req.Method)
	switch {
	case errors.Is(err, paymentdomain.ErrMethodRequired):
		return pendingPayment{}, domain.ErrNoMethodSelected
	case err != nil:
		return pendingPayment{}, domain.ErrInvalidMethod
	}

	reference := strings.TrimSpace(req.Reference)
	if policy.RequiresReference && reference == "" {
		return pendingPayment{}, domain.ErrMissingReference
	}

	payerID := customerdomain.NormalizeID(req.PayerID)
	if payerID == "" {
		return pendingPayment{}, domain.ErrInvalidPayer
	}
	if e.agg.IsTable() && !e.agg.AllowsPayer(payerID) {
		return pendingPayment{}, domain.ErrPayerNotAllowed
	}

	payment := pendingPayment{
		method:    policy.Method,
		reference: reference,
		payerID:   payerID,
	}

	if e.mode == domain.ModePerItem {
		var sub int64
		var lines []int
		for i, line := range e.agg.Lines {
			if e.selected[i] && !e.paid[i] {
				sub += line.Total
				lines = append(lines, i)
			}
		}
		if sub == 0 {
			return pendingPayment{}, domain.ErrNothingSelected
		}
		payment.amount = sub + e.proportionalTax(sub)
		payment.lines = e.withFreeLinesLocked(lines)
		return payment, nil
	}

	if req.Amount <= 0 {
		return pendingPayment{}, domain.ErrInvalidAmount
	}
	payment.amount = req.Amount
	return payment, nil
}

// withFreeLinesLocked adds the unpaid zero-priced lines to lines when nothing
// priced would be left unpaid after it; they cannot be paid on their own.
func (e *Engine) withFreeLinesLocked(lines []int) []int {
	taken := make(map[int]bool, len(lines))
	for _, li := range lines {
		taken[li] = true
	}
	var free []int
	for i, line := range e.agg.Lines {
		if e.paid[i] || taken[i] {
			continue
		}
		if line.Total != 0 {
			return lines
		}
		free = append(free, i)
	}
	if len(free) == 0 {
		return lines
	}
	merged := append(lines, free...)
	sort.Ints(merged)
	return merged
}

// RemovePayment drops the pending payment at index and returns the lines it
// settled to unpaid.
func (e *Engine) RemovePayment(index int) (domain.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.pending) {
		e.settleM.ObserveRejection("remove_payment", domain.ErrNoSelection)
		return e.snapshotLocked(), domain.ErrNoSelection
	}
	if e.progress != nil {
		e.settleM.ObserveRejection("remove_payment", domain.ErrSettleInProgress)
		return e.snapshotLocked(), domain.ErrSettleInProgress
	}

	removed := e.pending[index]
	for _, li := range removed.lines {
		e.paid[li] = false
		e.selected[li] = false
	}
	e.pending = append(e.pending[:index:index], e.pending[index+1:]...)

	e.log.Info("payment removed",
		zap.Int("index", index),
		zap.String("method", removed.method.String()),
		zap.Int64("amount", removed.amount),
	)
	e.metrics.RecordPaymentRemoved(context.Background(), removed.method.String())
	return e.snapshotLocked(), nil
}
