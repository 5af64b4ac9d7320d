package testing

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultStart is the time a new TestEnv's clock reads.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewClock returns a fake clock set to DefaultStart.
func NewClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(DefaultStart)
}

// Days returns n days as a duration.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
