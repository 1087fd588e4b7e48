package service

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"testing"

	paymentdomain "github.com/smallbiznis/possettle/internal/payment/domain"
	"github.com/smallbiznis/possettle/internal/reconcile/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) RecordPayments(ctx context.Context, records []paymentdomain.PaymentRecord) error {
	return m.Called(ctx, records).Error(0)
}

func (m *mockPayments) RecordDetails(ctx context.Context, records []paymentdomain.PaymentDetailRecord) error {
	return m.Called(ctx, records).Error(0)
}

func (m *mockPayments) ListByInvoice(ctx context.Context, invoiceID int64) ([]paymentdomain.PaymentRecord, error) {
	args := m.Called(ctx, invoiceID)
	rows, _ := args.Get(0).([]paymentdomain.PaymentRecord)
	return rows, args.Error(1)
}

func (m *mockPayments) ListDetailsByInvoice(ctx context.Context, invoiceID int64) ([]paymentdomain.PaymentDetailRecord, error) {
	args := m.Called(ctx, invoiceID)
	rows, _ := args.Get(0).([]paymentdomain.PaymentDetailRecord)
	return rows, args.Error(1)
}

func TestSettleRetryAfterPaymentWriteFailure(t *testing.T) {
	payments := new(mockPayments)
	boom := errors.New("no space left on device")
	payments.On("RecordPayments", mock.Anything, mock.Anything).Return(boom).Once()
	payments.On("RecordPayments", mock.Anything, mock.Anything).Return(nil).Once()

	h := newHarness(t, withPayments(payments))
	ctx := context.Background()

	_, err := h.engine.LoadOrder(ctx, "7")
	require.NoError(t, err)
	_, err = h.engine.AddPayment(ctx, cash("101112131", 1130))
	require.NoError(t, err)

	_, err = h.engine.Settle(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, boom)
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "append_payments", perr.Op)

	snap := h.engine.Snapshot()
	assert.Equal(t, domain.StateReadyToSettle, snap.State)
	assert.Len(t, snap.Payments, 1)

	// the invoice already exists, so edits are refused until the retry
	_, err = h.engine.AddPayment(ctx, cash("101112131", 5))
	assert.ErrorIs(t, err, domain.ErrSettleInProgress)
	_, err = h.engine.RemovePayment(0)
	assert.ErrorIs(t, err, domain.ErrSettleInProgress)

	settlement, err := h.engine.Settle(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), settlement.Invoice.ID)

	invoices, err := h.invoices.List(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
	payments.AssertNumberOfCalls(t, "RecordPayments", 2)
	payments.AssertNotCalled(t, "RecordDetails", mock.Anything, mock.Anything)
}

func TestSettleRetryAfterDetailWriteFailure(t *testing.T) {
	payments := new(mockPayments)
	payments.On("RecordPayments", mock.Anything, mock.Anything).Return(nil).Once()
	payments.On("RecordDetails", mock.Anything, mock.Anything).Return(errors.New("permission denied")).Once()
	payments.On("RecordDetails", mock.Anything, mock.MatchedBy(func(rows []paymentdomain.PaymentDetailRecord) bool {
		return len(rows) == 2
	})).Return(nil).Once()

	h := newHarness(t, withPayments(payments))
	ctx := context.Background()

	_, err := h.engine.LoadOrder(ctx, "7")
	require.NoError(t, err)
	h.engine.SetMode(domain.ModePerItem)
	h.engine.SelectLine(0, true)
	h.engine.SelectLine(1, true)
	_, err = h.engine.AddPayment(ctx, cash("101112131", 0))
	require.NoError(t, err)

	_, err = h.engine.Settle(ctx)
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "append_details", perr.Op)

	_, err = h.engine.Settle(ctx)
	require.NoError(t, err)
	payments.AssertNumberOfCalls(t, "RecordPayments", 1)
	payments.AssertExpectations(t)
}

func TestResetAfterFailedSettleUnlocksSession(t *testing.T) {
	payments := new(mockPayments)
	payments.On("RecordPayments", mock.Anything, mock.Anything).Return(errors.New("io")).Once()

	h := newHarness(t, withPayments(payments))
	ctx := context.Background()

	_, err := h.engine.LoadOrder(ctx, "7")
	require.NoError(t, err)
	_, err = h.engine.AddPayment(ctx, cash("101112131", 1130))
	require.NoError(t, err)
	_, err = h.engine.Settle(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)

	snap := h.engine.Reset()
	assert.Equal(t, domain.StateLoaded, snap.State)
	_, err = h.engine.AddPayment(ctx, cash("101112131", 1130))
	assert.NoError(t, err)
}

// checkLineOwnership verifies that every line is owned by at most one payment
// and is paid exactly when some payment owns it.
func checkLineOwnership(t *testing.T, snap domain.Snapshot) {
	t.Helper()
	owners := make(map[int]int)
	for _, p := range snap.Payments {
		for _, li := range p.Lines {
			owners[li]++
		}
	}
	for _, line := range snap.Lines {
		count := owners[line.Index]
		require.LessOrEqual(t, count, 1, "line %d owned twice", line.Index)
		require.Equal(t, count == 1, line.Paid, "line %d paid flag", line.Index)
	}
}

func TestRandomOperationsKeepLinesSingleOwned(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(20260301))

	_, err := h.engine.LoadOrder(ctx, "7")
	require.NoError(t, err)

	for step := 0; step < 2000; step++ {
		switch rng.Intn(5) {
		case 0:
			if rng.Intn(2) == 0 {
				h.engine.SetMode(domain.ModeFull)
			} else {
				h.engine.SetMode(domain.ModePerItem)
			}
		case 1:
			h.engine.SelectLine(rng.Intn(3)-1+rng.Intn(2), rng.Intn(2) == 0)
		case 2:
			_, _ = h.engine.AddPayment(ctx, cash("101112131", int64(rng.Intn(600))))
		case 3:
			_, _ = h.engine.RemovePayment(rng.Intn(4))
		case 4:
			snap := h.engine.Snapshot()
			if snap.Mode != domain.ModePerItem || len(snap.Payments) == 0 {
				continue
			}
			allPaid := true
			for _, line := range snap.Lines {
				allPaid = allPaid && line.Paid
			}
			if allPaid {
				h.engine.mu.Lock()
				err := h.engine.checkSettleableLocked()
				h.engine.mu.Unlock()
				require.NoError(t, err)
				continue
			}
			_, err := h.engine.Settle(ctx)
			require.ErrorIs(t, err, domain.ErrItemsPending)
			amount, _ := domain.AmountOf(err)
			require.Equal(t, snap.Owed, amount)
		}
		checkLineOwnership(t, h.engine.Snapshot())
	}
}

func TestSettleRetryAfterInvoiceWriteFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// a directory in place of the ledger fails every read and append
	require.NoError(t, os.Mkdir(h.path("facturas.txt"), 0o755))

	_, err := h.engine.LoadOrder(ctx, "7")
	require.NoError(t, err)
	_, err = h.engine.AddPayment(ctx, cash("101112131", 1200))
	require.NoError(t, err)

	_, err = h.engine.Settle(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "resolve_invoice", perr.Op)

	snap := h.engine.Snapshot()
	assert.Equal(t, domain.StateReadyToSettle, snap.State)
	require.Len(t, snap.Payments, 1)
	assert.Equal(t, int64(1200), snap.Payments[0].Amount)

	// nothing was written, so the payments stay editable
	_, err = h.engine.RemovePayment(0)
	require.NoError(t, err)
	_, err = h.engine.AddPayment(ctx, cash("101112131", 1200))
	require.NoError(t, err)

	require.NoError(t, os.Remove(h.path("facturas.txt")))
	settlement, err := h.engine.Settle(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), settlement.Invoice.ID)
	assert.Equal(t, int64(70), settlement.Change)

	rows, err := h.payments.FindByInvoiceID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
