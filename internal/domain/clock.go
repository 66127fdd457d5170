package domain

import "github.com/jonboulle/clockwork"

// clock is the package time source for assessment timestamps. Production code
// uses the real clock; tests and fixture tooling inject a fake via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
