package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/possettle/internal/config"
	taxdomain "github.com/smallbiznis/possettle/internal/tax/domain"
	"go.uber.org/fx"
)

type CalculatorParams struct {
	fx.In

	Pos *config.PosConfigHolder
}

type calculator struct {
	pos *config.PosConfigHolder
}

func NewCalculator(p CalculatorParams) taxdomain.Calculator {
	return &calculator{pos: p.Pos}
}

func (c *calculator) Rate() float64 {
	return c.pos.Get().TaxRate
}

func (c *calculator) Exclusive(subtotal int64) int64 {
	rate := c.Rate()
	return ComputeTaxExclusive(subtotal, &rate)
}

func (c *calculator) Proportional(orderTax, orderSubtotal, base int64) int64 {
	return Proportional(orderTax, orderSubtotal, base)
}

// ComputeTaxExclusive calculates tax added on top of subtotal.
// Rounding happens only here to keep stored values integer-safe.
func ComputeTaxExclusive(subtotal int64, rate *float64) int64 {
	if subtotal <= 0 || rate == nil || *rate <= 0 {
		return 0
	}

	tax := decimal.NewFromInt(subtotal).Mul(decimal.NewFromFloat(*rate)).Round(0).IntPart()
	if tax < 0 {
		return 0
	}
	return tax
}

// Proportional returns round(orderTax * base / orderSubtotal), or 0 when the
// order has no positive subtotal. Halves round away from zero.
func Proportional(orderTax, orderSubtotal, base int64) int64 {
	if orderSubtotal <= 0 {
		return 0
	}
	return decimal.NewFromInt(orderTax).
		Mul(decimal.NewFromInt(base)).
		Div(decimal.NewFromInt(orderSubtotal)).
		Round(0).
		IntPart()
}
