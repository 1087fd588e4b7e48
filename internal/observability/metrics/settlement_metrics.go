package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	orderdomain "github.com/smallbiznis/possettle/internal/order/domain"
	reconciledomain "github.com/smallbiznis/possettle/internal/reconcile/domain"
)

const (
	SettleOutcomeCommitted = "committed"
	SettleOutcomeRejected  = "rejected"
	SettleOutcomeFailed    = "failed"

	ReasonUnknown = "unknown"
)

// Known rejections, in classification order. The label is the sentinel text.
var knownReasons = []error{
	reconciledomain.ErrPersistence,
	reconciledomain.ErrInvalidReference,
	reconciledomain.ErrNoActiveOrder,
	reconciledomain.ErrNoMethodSelected,
	reconciledomain.ErrInvalidMethod,
	reconciledomain.ErrMissingReference,
	reconciledomain.ErrInvalidPayer,
	reconciledomain.ErrPayerNotAllowed,
	reconciledomain.ErrNothingSelected,
	reconciledomain.ErrInvalidAmount,
	reconciledomain.ErrNoSelection,
	reconciledomain.ErrEmptyOrder,
	reconciledomain.ErrNoPayments,
	reconciledomain.ErrItemsPending,
	reconciledomain.ErrInsufficientPayment,
	reconciledomain.ErrChangeRequiresCash,
	reconciledomain.ErrSettleInProgress,
	orderdomain.ErrNotFound,
	orderdomain.ErrNoOrders,
	orderdomain.ErrCorruptRecord,
	context.DeadlineExceeded,
	context.Canceled,
}

// ClassifyReason maps an engine error to a low-cardinality label.
func ClassifyReason(err error) string {
	if err == nil {
		return ""
	}
	for _, known := range knownReasons {
		if errors.Is(err, known) {
			switch known {
			case context.DeadlineExceeded:
				return "deadline_exceeded"
			case context.Canceled:
				return "canceled"
			}
			return known.Error()
		}
	}
	return ReasonUnknown
}

// SettlementMetrics captures reconciliation health as prometheus collectors.
type SettlementMetrics struct {
	registry       *prometheus.Registry
	settlements    *prometheus.CounterVec
	settleDuration prometheus.Histogram
	rejections     *prometheus.CounterVec
	pendingOwed    prometheus.Gauge
}

// NewSettlementMetrics registers the collectors on a dedicated registry.
func NewSettlementMetrics(cfg Config) *SettlementMetrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "possettle"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "possettle_settlements_total",
		Help:        "Settle attempts by payment mode and outcome.",
		ConstLabels: constLabels,
	}, []string{"mode", "outcome"})
	settleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "possettle_settle_duration_seconds",
		Help:        "Time spent committing invoice and payment rows.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		ConstLabels: constLabels,
	})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "possettle_rejections_total",
		Help:        "Rejected engine operations by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"operation", "reason"})
	pendingOwed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "possettle_amount_owed",
		Help:        "Amount still owed on the active aggregate, minor units.",
		ConstLabels: constLabels,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(settlements, settleDuration, rejections, pendingOwed)

	return &SettlementMetrics{
		registry:       registry,
		settlements:    settlements,
		settleDuration: settleDuration,
		rejections:     rejections,
		pendingOwed:    pendingOwed,
	}
}

func (m *SettlementMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSettle records one settle attempt.
func (m *SettlementMetrics) ObserveSettle(mode string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := SettleOutcomeCommitted
	switch {
	case err == nil:
		m.settleDuration.Observe(elapsed.Seconds())
	case errors.Is(err, reconciledomain.ErrPersistence):
		outcome = SettleOutcomeFailed
	default:
		outcome = SettleOutcomeRejected
	}
	m.settlements.WithLabelValues(mode, outcome).Inc()
	if err != nil {
		m.rejections.WithLabelValues("settle", ClassifyReason(err)).Inc()
	}
}

// ObserveRejection counts a rejected non-settle operation.
func (m *SettlementMetrics) ObserveRejection(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.rejections.WithLabelValues(operation, ClassifyReason(err)).Inc()
}

func (m *SettlementMetrics) SetOwed(amount int64) {
	if m == nil {
		return
	}
	m.pendingOwed.Set(float64(amount))
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *SettlementMetrics) WriteTextfile(path string) error {
	if m == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
