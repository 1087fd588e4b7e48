package repository

import (
	"context"
	"strconv"

	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/customer/domain"
	"github.com/smallbiznis/possettle/pkg/repository"
)

type customerCodec struct{}

func (customerCodec) Header() []string {
	return []string{"CEDULA", "NOMBRE", "TIPO", "VISITAS"}
}

func (customerCodec) Encode(c *domain.Customer) []string {
	return []string{c.ID, c.Name, c.Type, repository.Itoa(c.Visits)}
}

func (customerCodec) Decode(fields []string) (*domain.Customer, error) {
	if err := repository.Require(fields, 2); err != nil {
		return nil, err
	}
	// visit counts are informative; a blank or garbled value counts as zero
	visits, _ := strconv.ParseInt(repository.Field(fields, 3), 10, 64)
	return &domain.Customer{
		ID:     domain.NormalizeID(repository.Field(fields, 0)),
		Name:   repository.Field(fields, 1),
		Type:   repository.Field(fields, 2),
		Visits: visits,
	}, nil
}

type repo struct {
	store repository.Repository[domain.Customer]
}

func Provide(cfg config.Config) domain.Repository {
	return NewFileRepository(cfg.Path(cfg.ClientsFile))
}

func NewFileRepository(path string) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.Customer](path, customerCodec{})}
}

func (r *repo) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.store.FindOne(ctx, func(c *domain.Customer) bool { return c.ID == id })
}

func (r *repo) List(ctx context.Context) ([]*domain.Customer, error) {
	return r.store.Find(ctx, nil)
}
