package product

import (
	"context"

	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/product/domain"
	"github.com/smallbiznis/possettle/internal/product/repository"
	"github.com/smallbiznis/possettle/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s *service.Service) domain.Service { return s }),
	fx.Invoke(registerWatcher),
)

func registerWatcher(lc fx.Lifecycle, cfg config.Config, svc *service.Service) {
	if !cfg.WatchCatalog {
		return
	}
	w := service.NewWatcher(svc)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return w.Start(ctx) },
		OnStop:  func(ctx context.Context) error { return w.Stop(ctx) },
	})
}
