package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("payer_id", "101112131"),
		attribute.String("method", "CASH"),
		attribute.String("mode", "full"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "payer_id" {
			t.Fatalf("expected payer_id to be dropped")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordOrderLoaded(context.Background(), "order")
	m.RecordPaymentAccepted(context.Background(), "CASH", "full", 100)
	m.RecordPaymentRemoved(context.Background(), "CASH")
	m.RecordInvoice(context.Background(), true)
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordPaymentAccepted(context.Background(), "CARD", "per-item", 452)
	m.RecordInvoice(context.Background(), false)
}
