package domain

import (
	"strings"

	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/possettle/internal/order/domain"
)

type Mode string

const (
	ModeFull    Mode = "full"
	ModePerItem Mode = "per-item"
)

// ParseMode accepts "full" and "per-item" along with the short forms "item"
// and "items".
func ParseMode(raw string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "full", "total":
		return ModeFull, true
	case "per-item", "item", "items":
		return ModePerItem, true
	default:
		return "", false
	}
}

type State string

const (
	StateEmpty            State = "EMPTY"
	StateLoaded           State = "LOADED"
	StatePartiallySettled State = "PARTIALLY_SETTLED"
	StateReadyToSettle    State = "READY_TO_SETTLE"
)

// PaymentRequest is one payment as entered by the operator. Amount is
// ignored in per-item mode, where it is derived from the selection.
type PaymentRequest struct {
	Method    string
	Amount    int64
	Reference string
	PayerID   string
}

// LineState is the display state of one aggregate line. PaymentIndex is -1
// while the line is unpaid.
type LineState struct {
	Index        int
	Line         orderdomain.Line
	Selected     bool
	Paid         bool
	PaymentIndex int
}

type Payment struct {
	Index     int
	Method    string
	Amount    int64
	Reference string
	PayerID   string
	Lines     []int
}

// Snapshot is the full display state after an engine operation.
type Snapshot struct {
	SessionID    string
	State        State
	Mode         Mode
	Origin       orderdomain.Origin
	OrderID      int64
	TableNumber  int64
	TableLabel   string
	PayerDisplay string

	Subtotal int64
	Tax      int64
	Total    int64

	Owed           int64
	Paid           int64
	Change         int64
	Balance        int64
	SelectedAmount int64

	Lines    []LineState
	Payments []Payment
}

// Settlement describes a committed invoice.
type Settlement struct {
	SessionID     string
	Invoice       invoicedomain.Invoice
	InvoiceNumber string
	Reused        bool
	Mode          Mode
	Lines         []orderdomain.Line
	Payments      []Payment
	Paid          int64
	Change        int64
}
