package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, id string) (Product, error)
	// Name resolves the display name of a product, falling back to the id.
	Name(ctx context.Context, id string) string
	Reload(ctx context.Context) error
	// Subscribe registers fn for reload notifications. The returned func
	// removes the subscription.
	Subscribe(fn func(Event)) func()
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
)
