package clock

import "time"

// FakeClock always reports the instant it was created with.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

var _ Clock = (*FakeClock)(nil)
