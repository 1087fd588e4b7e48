package domain

import "context"

type Repository interface {
	FindAll(ctx context.Context) ([]*Product, error)
	Path() string
}
