package domain

import (
	"errors"
	"strings"
)

type Method string

const (
	MethodCash  Method = "CASH"
	MethodCard  Method = "CARD"
	MethodSinpe Method = "SINPE"
)

var (
	ErrMethodRequired = errors.New("method_required")
	ErrUnknownMethod  = errors.New("unknown_method")
)

// NormalizeMethod upper-cases and trims an operator supplied method name.
func NormalizeMethod(raw string) Method {
	return Method(strings.ToUpper(strings.TrimSpace(raw)))
}

func (m Method) String() string { return string(m) }

// PaymentRecord is one durable payment row written at settle time.
type PaymentRecord struct {
	InvoiceID int64
	Method    Method
	Amount    int64
	Reference string
	PayerID   string
}

// PaymentDetailRecord ties one settled line to the payment that covered it.
// Audit only; the engine never reads these rows back.
type PaymentDetailRecord struct {
	InvoiceID int64
	Method    Method
	Amount    int64
	Reference string
	OrderID   int64
	PayerID   string
	Product   string
	Quantity  int64
	UnitPrice int64
	LineTotal int64
}
