package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidReference    = errors.New("invalid_reference")
	ErrNoActiveOrder       = errors.New("no_active_order")
	ErrNoMethodSelected    = errors.New("no_method_selected")
	ErrInvalidMethod       = errors.New("invalid_method")
	ErrMissingReference    = errors.New("missing_reference")
	ErrInvalidPayer        = errors.New("invalid_payer")
	ErrPayerNotAllowed     = errors.New("payer_not_allowed")
	ErrNothingSelected     = errors.New("nothing_selected")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrNoSelection         = errors.New("no_selection")
	ErrEmptyOrder          = errors.New("empty_order")
	ErrNoPayments          = errors.New("no_payments")
	ErrItemsPending        = errors.New("items_pending")
	ErrInsufficientPayment = errors.New("insufficient_payment")
	ErrChangeRequiresCash  = errors.New("change_requires_cash")
	ErrSettleInProgress    = errors.New("settle_in_progress")
	ErrPersistence         = errors.New("persistence_error")
)

// AmountError carries the amount the operator still has to cover. Kind is
// ErrItemsPending or ErrInsufficientPayment.
type AmountError struct {
	Kind   error
	Amount int64
}

func NewAmountError(kind error, amount int64) *AmountError {
	return &AmountError{Kind: kind, Amount: amount}
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%s: %d", e.Kind, e.Amount)
}

func (e *AmountError) Unwrap() error { return e.Kind }

// PersistenceError reports a ledger write that failed during settle. It
// matches ErrPersistence and unwraps to the underlying I/O error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// AmountOf extracts the amount carried by an AmountError anywhere in err.
func AmountOf(err error) (int64, bool) {
	var amountErr *AmountError
	if errors.As(err, &amountErr) {
		return amountErr.Amount, true
	}
	return 0, false
}
