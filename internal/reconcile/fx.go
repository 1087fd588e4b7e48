package reconcile

import (
	"github.com/smallbiznis/possettle/internal/reconcile/domain"
	"github.com/smallbiznis/possettle/internal/reconcile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile.service",
	fx.Provide(service.New),
	fx.Provide(func(e *service.Engine) domain.Service { return e }),
)
