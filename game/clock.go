package game

// Clock counts fixed timesteps.
type Clock struct {
	dt      float32
	ticks   int64
	elapsed float32
}

// NewClock creates a clock advancing dt seconds per tick.
func NewClock(dt float32) Clock {
	return Clock{dt: dt}
}

// Advance moves the clock forward one tick.
func (c *Clock) Advance() {
	c.ticks++
	c.elapsed += c.dt
}

// Reset returns the clock to zero.
func (c *Clock) Reset() {
	c.ticks = 0
	c.elapsed = 0
}

// Ticks returns the number of ticks since the last reset.
func (c *Clock) Ticks() int64 { return c.ticks }

// Elapsed returns the simulated seconds since the last reset.
func (c *Clock) Elapsed() float32 { return c.elapsed }
