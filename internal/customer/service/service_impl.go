package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/possettle/internal/customer/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:  p.Log.Named("customer.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id string) (domain.Customer, error) {
	id = domain.NormalizeID(id)
	if id == "" {
		return domain.Customer{}, domain.ErrInvalidID
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *customer, nil
}

func (s *Service) DisplayName(ctx context.Context, id, fallback string) string {
	customer, err := s.Get(ctx, id)
	if err != nil {
		s.log.Debug("customer name unresolved", zap.String("customer_id", id), zap.Error(err))
		return fallback
	}
	if name := strings.TrimSpace(customer.Name); name != "" {
		return name
	}
	return fallback
}
