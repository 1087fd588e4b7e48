package domain

import "context"

// Service is the reconciliation engine: one loaded aggregate, its pending
// payments and the settle step that commits them.
type Service interface {
	LoadOrder(ctx context.Context, raw string) (Snapshot, error)
	LoadTable(ctx context.Context, raw string) (Snapshot, error)
	SetMode(mode Mode) Snapshot
	SelectLine(index int, selected bool) Snapshot
	AddPayment(ctx context.Context, req PaymentRequest) (Snapshot, error)
	RemovePayment(index int) (Snapshot, error)
	// Reset drops every pending payment and line settlement but keeps the
	// aggregate loaded.
	Reset() Snapshot
	// Discard drops the aggregate and all working state.
	Discard() Snapshot
	Settle(ctx context.Context) (Settlement, error)

	Snapshot() Snapshot
	AmountOwed() int64
	AmountPaid() int64
	Change() int64
}
