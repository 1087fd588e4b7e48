package tax

import (
	"github.com/smallbiznis/possettle/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax",
	fx.Provide(service.NewCalculator),
)
