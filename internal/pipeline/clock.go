package pipeline

import "github.com/jonboulle/clockwork"

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock swaps the package clock, returning a restore function. Tests use
// a fake clock to pin report timestamps.
func SetClock(c clockwork.Clock) func() {
	prev := clock
	clock = c
	return func() { clock = prev }
}
