package retrypolicy

import (
	"math"
	"time"
)

// Backoff returns the delay to wait before attempt n (1-indexed, n >= 1)
// under standard exponential backoff: factor * 2^(n-1) seconds. Attempt 1
// is the first retry, so Backoff(f, 1) == f seconds.
func Backoff(factor float64, n int) time.Duration {
	if n < 1 {
		return 0
	}
	seconds := factor * math.Pow(2, float64(n-1))
	return time.Duration(seconds * float64(time.Second))
}
