package invoice

import (
	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/invoice/render"
	"github.com/smallbiznis/possettle/internal/invoice/repository"
	"github.com/smallbiznis/possettle/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(pos *config.PosConfigHolder) (*render.Renderer, error) {
		return render.NewRenderer(pos.Get().CurrencySymbol)
	}),
)
