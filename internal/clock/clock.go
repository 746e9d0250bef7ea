// Package clock provides the single monotonic timestamp source every
// producer and ring in keepclip stamps data from.
package clock

import (
	"time"

	"github.com/keepclip/keepclip/internal/errors"
)

// TicksPerSecond is the fixed tick rate for every Timestamp in the process.
// Ticks are nanoseconds, so conversions to/from time.Duration are exact.
const TicksPerSecond int64 = 1_000_000_000

// Timestamp is a signed tick count from a Clock. Only Clock.Now and
// arithmetic on existing Timestamps should produce one.
type Timestamp int64

// Source is what the rest of the core depends on rather than the
// concrete Clock, so tests can substitute a deterministic fake.
type Source interface {
	Now() Timestamp
	TicksPerSecond() int64
	TicksToSeconds(delta Timestamp) float64
	SecondsToTicks(seconds float64) Timestamp
}

// Add returns ts advanced by d.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	return ts + Timestamp(d.Nanoseconds())
}

// Sub returns the duration between ts and other (ts - other).
func (ts Timestamp) Sub(other Timestamp) time.Duration {
	return time.Duration(ts - other)
}

// Clock is a monotonic timestamp source shared by every producer and ring.
// A Clock is safe for concurrent use; Now is non-decreasing across threads
// because it is backed by the runtime's monotonic clock reading.
type Clock struct {
	start    time.Time
	tps      int64
}

// New constructs a Clock. It fails only if the platform cannot provide a
// monotonic time source, which New treats as fatal per spec: callers
// should not attempt to recover from this error.
func New() (*Clock, error) {
	start := time.Now()
	if start.IsZero() {
		return nil, errors.Newf("monotonic clock unavailable").
			Component("clock").
			Category(errors.CategorySystem).
			Build()
	}
	return &Clock{start: start, tps: TicksPerSecond}, nil
}

// TicksPerSecond returns the fixed tick rate of this Clock.
func (c *Clock) TicksPerSecond() int64 {
	return c.tps
}

// Now returns the current timestamp, in ticks since the Clock was created.
func (c *Clock) Now() Timestamp {
	return Timestamp(time.Since(c.start).Nanoseconds())
}

// TicksToSeconds converts a tick delta to seconds.
func (c *Clock) TicksToSeconds(delta Timestamp) float64 {
	return float64(delta) / float64(c.tps)
}

// SecondsToTicks converts a duration in seconds to a tick delta.
func (c *Clock) SecondsToTicks(seconds float64) Timestamp {
	return Timestamp(seconds * float64(c.tps))
}
