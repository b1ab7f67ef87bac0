package engine

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests and fixture tooling can
// freeze plan timestamps. Production code uses the real clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for plan generation. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
