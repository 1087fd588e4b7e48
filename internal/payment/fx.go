package payment

import (
	"github.com/smallbiznis/possettle/internal/payment/adapters"
	"github.com/smallbiznis/possettle/internal/payment/repository"
	paymentservice "github.com/smallbiznis/possettle/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideDetails),
	fx.Provide(adapters.NewDefaultRegistry),
	fx.Provide(paymentservice.NewService),
)
