package domain

// Calculator applies the single flat VAT rate of the point of sale.
type Calculator interface {
	// Rate returns the configured rate, e.g. 0.13.
	Rate() float64
	// Exclusive returns the tax added on top of subtotal at the current rate.
	Exclusive(subtotal int64) int64
	// Proportional splits an already computed order tax across a partial base.
	Proportional(orderTax, orderSubtotal, base int64) int64
}
