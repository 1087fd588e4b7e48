package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possettle/internal/clock"
	"github.com/smallbiznis/possettle/internal/config"
	customerdomain "github.com/smallbiznis/possettle/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
	"github.com/smallbiznis/possettle/internal/observability/logger"
	"github.com/smallbiznis/possettle/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/possettle/internal/order/domain"
	"github.com/smallbiznis/possettle/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/possettle/internal/payment/domain"
	"github.com/smallbiznis/possettle/internal/reconcile/domain"
	taxdomain "github.com/smallbiznis/possettle/internal/tax/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Orders    orderdomain.Source
	Invoices  invoicedomain.Service
	Payments  paymentdomain.Service
	Methods   *adapters.Registry
	Customers customerdomain.Service
	Tax       taxdomain.Calculator
	Clock     clock.Clock
	GenID     *snowflake.Node
	Pos       *config.PosConfigHolder

	Metrics           *metrics.Metrics           `optional:"true"`
	SettlementMetrics *metrics.SettlementMetrics `optional:"true"`
}

type pendingPayment struct {
	method    paymentdomain.Method
	amount    int64
	reference string
	payerID   string
	lines     []int
}

// settleProgress remembers what a failed settle already made durable so a
// retry never writes the same rows twice.
type settleProgress struct {
	invoice         invoicedomain.Invoice
	reused          bool
	paymentsWritten bool
}

type Engine struct {
	baseLog   *zap.Logger
	log       *zap.Logger
	orders    orderdomain.Source
	invoices  invoicedomain.Service
	payments  paymentdomain.Service
	methods   *adapters.Registry
	customers customerdomain.Service
	tax       taxdomain.Calculator
	clock     clock.Clock
	genID     *snowflake.Node
	pos       *config.PosConfigHolder
	metrics   *metrics.Metrics
	settleM   *metrics.SettlementMetrics
	tracer    trace.Tracer

	mu       sync.Mutex
	session  string
	agg      *orderdomain.Aggregate
	mode     domain.Mode
	selected []bool
	paid     []bool
	pending  []pendingPayment
	progress *settleProgress
}

func New(p Params) *Engine {
	log := p.Log.Named("reconcile.service")
	return &Engine{
		baseLog:   log,
		log:       log,
		orders:    p.Orders,
		invoices:  p.Invoices,
		payments:  p.Payments,
		methods:   p.Methods,
		customers: p.Customers,
		tax:       p.Tax,
		clock:     p.Clock,
		genID:     p.GenID,
		pos:       p.Pos,
		metrics:   p.Metrics,
		settleM:   p.SettlementMetrics,
		tracer:    otel.Tracer("possettle/reconcile"),
		mode:      domain.ModeFull,
	}
}

func (e *Engine) LoadOrder(ctx context.Context, raw string) (domain.Snapshot, error) {
	id, err := parseReference(raw)
	if err != nil {
		e.settleM.ObserveRejection("load_order", err)
		return e.Snapshot(), err
	}
	agg, err := e.orders.LoadByOrderID(ctx, id)
	if err != nil {
		e.log.Warn("order load failed", zap.Int64("order_id", id), zap.Error(err))
		e.settleM.ObserveRejection("load_order", err)
		return e.Snapshot(), err
	}
	return e.install(ctx, agg), nil
}

func (e *Engine) LoadTable(ctx context.Context, raw string) (domain.Snapshot, error) {
	table, err := parseReference(raw)
	if err != nil {
		e.settleM.ObserveRejection("load_table", err)
		return e.Snapshot(), err
	}
	agg, err := e.orders.LoadByTable(ctx, table)
	if err != nil {
		e.log.Warn("table load failed", zap.Int64("table", table), zap.Error(err))
		e.settleM.ObserveRejection("load_table", err)
		return e.Snapshot(), err
	}
	return e.install(ctx, agg), nil
}

func parseReference(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.ErrInvalidReference
	}
	return n, nil
}

func (e *Engine) install(ctx context.Context, agg *orderdomain.Aggregate) domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) > 0 {
		e.log.Warn("discarding pending payments on reload", zap.Int("payments", len(e.pending)))
	}

	e.session = e.genID.Generate().String()
	e.log = logger.WithSession(e.baseLog, e.session)
	e.agg = agg
	e.mode = domain.ModeFull
	e.selected = make([]bool, len(agg.Lines))
	e.paid = make([]bool, len(agg.Lines))
	e.pending = nil
	e.progress = nil

	e.log.Info("aggregate loaded",
		zap.String("origin", string(agg.Origin)),
		zap.Int64("order_id", agg.OrderID),
		zap.Int64("table", agg.TableNumber),
		zap.Int("lines", len(agg.Lines)),
		zap.Int64("total", agg.Total),
	)
	e.metrics.RecordOrderLoaded(ctx, string(agg.Origin))
	return e.snapshotLocked()
}

func (e *Engine) SetMode(mode domain.Mode) domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agg == nil || e.progress != nil {
		return e.snapshotLocked()
	}
	if mode != domain.ModeFull && mode != domain.ModePerItem {
		return e.snapshotLocked()
	}
	// full-mode payments settle no lines, so per-item owed could not see them
	if mode == domain.ModePerItem && e.hasLinelessPaymentLocked() {
		e.log.Debug("mode switch refused while full payments are pending", zap.Int("payments", len(e.pending)))
		return e.snapshotLocked()
	}
	e.mode = mode
	// only settled lines stay selected across a mode switch
	copy(e.selected, e.paid)
	return e.snapshotLocked()
}

func (e *Engine) hasLinelessPaymentLocked() bool {
	for _, p := range e.pending {
		if len(p.lines) == 0 {
			return true
		}
	}
	return false
}

// SelectLine ignores calls outside per-item mode and on settled lines.
func (e *Engine) SelectLine(index int, selected bool) domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agg == nil || e.mode != domain.ModePerItem || e.progress != nil {
		return e.snapshotLocked()
	}
	if index < 0 || index >= len(e.selected) || e.paid[index] {
		return e.snapshotLocked()
	}
	e.selected[index] = selected
	return e.snapshotLocked()
}

func (e *Engine) Reset() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agg != nil {
		if e.progress != nil {
			e.log.Warn("reset after partial settle; written rows stay in the ledgers",
				zap.Int64("invoice_id", e.progress.invoice.ID),
				zap.Bool("payments_written", e.progress.paymentsWritten),
			)
		}
		e.selected = make([]bool, len(e.agg.Lines))
		e.paid = make([]bool, len(e.agg.Lines))
	}
	e.pending = nil
	e.progress = nil
	return e.snapshotLocked()
}

func (e *Engine) Discard() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearLocked()
	return e.snapshotLocked()
}

func (e *Engine) clearLocked() {
	e.agg = nil
	e.mode = domain.ModeFull
	e.selected = nil
	e.paid = nil
	e.pending = nil
	e.progress = nil
	e.session = ""
	e.log = e.baseLog
}

func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) AmountOwed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	owed, _ := e.owedLocked()
	return owed
}

func (e *Engine) AmountPaid() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paidTotalLocked()
}

func (e *Engine) Change() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, change := e.owedLocked()
	return change
}

func (e *Engine) proportionalTax(base int64) int64 {
	return e.tax.Proportional(e.agg.Tax, e.agg.Subtotal, base)
}

func (e *Engine) paidTotalLocked() int64 {
	var total int64
	for _, p := range e.pending {
		total += p.amount
	}
	return total
}

// owedLocked returns the amount still owed and the change due. In per-item
// mode the owed amount covers every unpaid line plus its share of tax; in
// full mode it is the order total less every pending payment.
func (e *Engine) owedLocked() (owed, change int64) {
	if e.agg == nil {
		return 0, 0
	}
	if e.mode == domain.ModePerItem {
		var pendingSub int64
		for i, line := range e.agg.Lines {
			if !e.paid[i] {
				pendingSub += line.Total
			}
		}
		return pendingSub + e.proportionalTax(pendingSub), 0
	}

	balance := e.agg.Total - e.paidTotalLocked()
	if balance > 0 {
		return balance, 0
	}
	return 0, -balance
}

func (e *Engine) selectedAmountLocked() int64 {
	if e.agg == nil || e.mode != domain.ModePerItem {
		return 0
	}
	var sub int64
	for i, line := range e.agg.Lines {
		if e.selected[i] && !e.paid[i] {
			sub += line.Total
		}
	}
	if sub == 0 {
		return 0
	}
	return sub + e.proportionalTax(sub)
}

func (e *Engine) stateLocked() domain.State {
	switch {
	case e.agg == nil:
		return domain.StateEmpty
	case len(e.pending) == 0:
		return domain.StateLoaded
	}
	if owed, _ := e.owedLocked(); owed > 0 {
		return domain.StatePartiallySettled
	}
	return domain.StateReadyToSettle
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	owed, change := e.owedLocked()
	snap := domain.Snapshot{
		SessionID:      e.session,
		State:          e.stateLocked(),
		Mode:           e.mode,
		Owed:           owed,
		Paid:           e.paidTotalLocked(),
		Change:         change,
		Balance:        owed - change,
		SelectedAmount: e.selectedAmountLocked(),
		Payments:       e.paymentViewsLocked(),
	}
	e.settleM.SetOwed(owed)
	if e.agg == nil {
		return snap
	}

	snap.Origin = e.agg.Origin
	snap.OrderID = e.agg.OrderID
	snap.TableNumber = e.agg.TableNumber
	snap.TableLabel = e.agg.TableLabel
	snap.PayerDisplay = e.agg.PayerDisplay
	snap.Subtotal = e.agg.Subtotal
	snap.Tax = e.agg.Tax
	snap.Total = e.agg.Total

	owner := make(map[int]int)
	for pi, p := range e.pending {
		for _, li := range p.lines {
			owner[li] = pi
		}
	}
	snap.Lines = make([]domain.LineState, len(e.agg.Lines))
	for i, line := range e.agg.Lines {
		state := domain.LineState{
			Index:        i,
			Line:         line,
			Selected:     e.selected[i],
			Paid:         e.paid[i],
			PaymentIndex: -1,
		}
		if pi, ok := owner[i]; ok {
			state.PaymentIndex = pi
		}
		snap.Lines[i] = state
	}
	return snap
}

func (e *Engine) paymentViewsLocked() []domain.Payment {
	if len(e.pending) == 0 {
		return nil
	}
	views := make([]domain.Payment, len(e.pending))
	for i, p := range e.pending {
		views[i] = domain.Payment{
			Index:     i,
			Method:    p.method.String(),
			Amount:    p.amount,
			Reference: p.reference,
			PayerID:   p.payerID,
			Lines:     append([]int(nil), p.lines...),
		}
	}
	return views
}
