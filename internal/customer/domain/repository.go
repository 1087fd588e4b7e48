package domain

import "context"

type Repository interface {
	FindByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context) ([]*Customer, error)
}
