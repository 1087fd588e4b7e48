package service

import (
	"testing"

	"github.com/smallbiznis/possettle/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestProportional(t *testing.T) {
	tests := []struct {
		name     string
		tax      int64
		subtotal int64
		base     int64
		want     int64
	}{
		{name: "worked example", tax: 130, subtotal: 1000, base: 400, want: 52},
		{name: "complement", tax: 130, subtotal: 1000, base: 600, want: 78},
		{name: "whole order", tax: 130, subtotal: 1000, base: 1000, want: 130},
		{name: "zero base", tax: 130, subtotal: 1000, base: 0, want: 0},
		{name: "half rounds up", tax: 1, subtotal: 2, base: 1, want: 1},
		{name: "zero subtotal", tax: 130, subtotal: 0, base: 10, want: 0},
		{name: "negative subtotal", tax: 130, subtotal: -5, base: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Proportional(tt.tax, tt.subtotal, tt.base))
		})
	}
}

func TestProportionalComplementsWithinOne(t *testing.T) {
	orders := []struct{ subtotal, tax int64 }{
		{1000, 130}, {2450, 319}, {7, 1}, {333, 43}, {99999, 13000},
	}
	for _, o := range orders {
		for base := int64(0); base <= o.subtotal; base += 1 + o.subtotal/97 {
			sum := Proportional(o.tax, o.subtotal, base) + Proportional(o.tax, o.subtotal, o.subtotal-base)
			diff := sum - o.tax
			assert.LessOrEqualf(t, diff, int64(1), "subtotal=%d base=%d", o.subtotal, base)
			assert.GreaterOrEqualf(t, diff, int64(-1), "subtotal=%d base=%d", o.subtotal, base)
		}
	}
}

func TestComputeTaxExclusive(t *testing.T) {
	rate := 0.13
	assert.Equal(t, int64(130), ComputeTaxExclusive(1000, &rate))
	assert.Equal(t, int64(0), ComputeTaxExclusive(0, &rate))
	assert.Equal(t, int64(0), ComputeTaxExclusive(1000, nil))

	zero := 0.0
	assert.Equal(t, int64(0), ComputeTaxExclusive(1000, &zero))
}

func TestCalculatorUsesConfiguredRate(t *testing.T) {
	cfg := config.DefaultPosConfig()
	cfg.TaxRate = 0.10
	calc := NewCalculator(CalculatorParams{Pos: config.NewStaticPosConfigHolder(cfg)})

	assert.Equal(t, 0.10, calc.Rate())
	assert.Equal(t, int64(100), calc.Exclusive(1000))
	assert.Equal(t, int64(52), calc.Proportional(130, 1000, 400))
}
