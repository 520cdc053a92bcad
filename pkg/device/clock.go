package device

import "time"

// Clock is the monotonic time base for the control loop. Milliseconds are
// derived from Micros so that both resolutions share one origin.
type Clock interface {
	// Micros returns monotonic microseconds since an arbitrary fixed origin.
	Micros() int64
}

// wallClock measures elapsed time from its creation using the runtime's
// monotonic clock.
type wallClock struct {
	start time.Time
}

// NewClock returns a Clock whose origin is the moment of the call.
func NewClock() Clock {
	return &wallClock{start: time.Now()}
}

func (c *wallClock) Micros() int64 {
	return time.Since(c.start).Microseconds()
}
