package sampler

import (
	"math"
	"time"
)

// minElapsed bounds the divisor of a rate so that two reads landing almost
// on the same instant cannot produce an absurd spike.
const minElapsed = time.Millisecond

// rateState is the previous network reading used to derive throughput
type rateState struct {
	counters    NetworkCounters
	at          time.Time
	initialized bool
}

// perSecond returns (cur-prev)/elapsed, or 0 when elapsed is not positive
// or the counter went backwards (interface reset, wraparound).
func perSecond(prev, cur uint64, elapsed time.Duration) uint64 {
	if elapsed <= 0 || cur < prev {
		return 0
	}
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	return uint64(float64(cur-prev) / elapsed.Seconds())
}

// clampFraction limits v to [0,1]; NaN becomes 0
func clampFraction(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// available converts a value-or-error reading into value-or-nil
func available[T any](v T, err error) *T {
	if err != nil {
		return nil
	}
	return &v
}
