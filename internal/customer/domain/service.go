package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, id string) (Customer, error)
	// DisplayName resolves the customer name, returning fallback when the id
	// is unknown or the directory cannot be read.
	DisplayName(ctx context.Context, id, fallback string) string
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
)
