package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
	Textfile         string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	ordersLoaded     metric.Int64Counter
	paymentsAccepted metric.Int64Counter
	paymentAmount    metric.Int64Counter
	paymentsRemoved  metric.Int64Counter
	invoicesCreated  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "possettle"
	}
	meter := provider.Meter(name)

	ordersLoaded, err := meter.Int64Counter("possettle_orders_loaded_total")
	if err != nil {
		return nil, err
	}
	paymentsAccepted, err := meter.Int64Counter("possettle_payments_accepted_total")
	if err != nil {
		return nil, err
	}
	paymentAmount, err := meter.Int64Counter("possettle_payment_amount_total",
		metric.WithDescription("Accepted payment amounts in minor currency units."))
	if err != nil {
		return nil, err
	}
	paymentsRemoved, err := meter.Int64Counter("possettle_payments_removed_total")
	if err != nil {
		return nil, err
	}
	invoicesCreated, err := meter.Int64Counter("possettle_invoices_created_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersLoaded:     ordersLoaded,
		paymentsAccepted: paymentsAccepted,
		paymentAmount:    paymentAmount,
		paymentsRemoved:  paymentsRemoved,
		invoicesCreated:  invoicesCreated,
	}, nil
}

// RecordOrderLoaded counts aggregates loaded by origin (order or table).
func (m *Metrics) RecordOrderLoaded(ctx context.Context, origin string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("origin", strings.TrimSpace(origin)))
	m.ordersLoaded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPaymentAccepted counts an accepted payment and its amount.
func (m *Metrics) RecordPaymentAccepted(ctx context.Context, method, mode string, amount int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("method", strings.TrimSpace(method)),
		attribute.String("mode", strings.TrimSpace(mode)),
	)
	m.paymentsAccepted.Add(ctx, 1, metric.WithAttributes(attrs...))
	if amount > 0 {
		m.paymentAmount.Add(ctx, amount, metric.WithAttributes(attrs...))
	}
}

func (m *Metrics) RecordPaymentRemoved(ctx context.Context, method string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("method", strings.TrimSpace(method)))
	m.paymentsRemoved.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvoice counts invoice resolutions; reused is true when an existing
// invoice received the payments.
func (m *Metrics) RecordInvoice(ctx context.Context, reused bool) {
	if m == nil {
		return
	}
	outcome := "created"
	if reused {
		outcome = "reused"
	}
	attrs := FilterAttributes(attribute.String("outcome", outcome))
	m.invoicesCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"origin":  {},
	"method":  {},
	"mode":    {},
	"outcome": {},
	"reason":  {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
