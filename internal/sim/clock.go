package sim

import "time"

// Clock gates simulation steps to a fixed interval. Time below the interval
// accumulates; once it is reached exactly one step of Interval is released
// and the excess is dropped. A slow caller therefore falls behind wall
// clock time instead of running several steps to catch up.
type Clock struct {
	interval time.Duration
	acc      time.Duration
}

// NewClock creates a clock releasing steps of interval.
func NewClock(interval time.Duration) *Clock {
	return &Clock{interval: interval}
}

// NewClockRate creates a clock releasing rate steps per second.
func NewClockRate(rate int) *Clock {
	return NewClock(time.Second / time.Duration(rate))
}

func (c *Clock) Interval() time.Duration { return c.interval }

// Advance adds elapsed time and reports whether a step is due. When it is,
// dt is the fixed interval in seconds.
func (c *Clock) Advance(elapsed time.Duration) (dt float64, ok bool) {
	c.acc += elapsed
	if c.acc < c.interval {
		return 0, false
	}
	c.acc = 0
	return c.interval.Seconds(), true
}

// Remaining is the time left until the next step is due.
func (c *Clock) Remaining() time.Duration {
	return c.interval - c.acc
}
