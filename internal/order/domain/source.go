package domain

import (
	"context"
	"errors"
)

// Source loads immutable order aggregates from the order store.
type Source interface {
	LoadByOrderID(ctx context.Context, orderID int64) (*Aggregate, error)
	LoadByTable(ctx context.Context, table int64) (*Aggregate, error)
}

var (
	ErrNotFound      = errors.New("not_found")
	ErrNoOrders      = errors.New("no_orders")
	ErrCorruptRecord = errors.New("corrupt_record")
)
