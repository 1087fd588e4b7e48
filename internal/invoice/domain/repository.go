package domain

import "context"

// Ledger is the append-only invoice store. Ids are assigned as the highest
// existing id plus one.
type Ledger interface {
	// FindByOrderID returns the first invoice keyed by orderID, or nil.
	FindByOrderID(ctx context.Context, orderID int64) (*Invoice, error)
	FindByID(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context) ([]*Invoice, error)
	// Create assigns the next id to invoice and appends it.
	Create(ctx context.Context, invoice *Invoice) error
}
