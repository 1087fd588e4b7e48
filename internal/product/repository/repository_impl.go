package repository

import (
	"context"
	"strconv"

	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/product/domain"
	"github.com/smallbiznis/possettle/pkg/repository"
)

type productCodec struct{}

func (productCodec) Header() []string {
	return []string{"ID", "NOMBRE", "PRECIO", "STOCK"}
}

func (productCodec) Encode(p *domain.Product) []string {
	return []string{p.ID, p.Name, repository.Itoa(p.Price), repository.Itoa(p.Stock)}
}

func (productCodec) Decode(fields []string) (*domain.Product, error) {
	if err := repository.Require(fields, 2); err != nil {
		return nil, err
	}
	price, _ := strconv.ParseInt(repository.Field(fields, 2), 10, 64)
	stock, _ := strconv.ParseInt(repository.Field(fields, 3), 10, 64)
	return &domain.Product{
		ID:    repository.Field(fields, 0),
		Name:  repository.Field(fields, 1),
		Price: price,
		Stock: stock,
	}, nil
}

type repo struct {
	store repository.Repository[domain.Product]
}

func Provide(cfg config.Config) domain.Repository {
	return NewFileRepository(cfg.Path(cfg.CatalogFile))
}

func NewFileRepository(path string) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.Product](path, productCodec{})}
}

func (r *repo) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.store.Find(ctx, nil)
}

func (r *repo) Path() string {
	return r.store.Path()
}
