package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock reports the current time. Invoices take their date and time from it.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock returns a Clock reading the wall clock in the local zone.
func NewSystemClock() Clock {
	return systemClock{loc: time.Local}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
