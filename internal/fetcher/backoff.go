package fetcher

import (
	"context"
	"time"
)

// maxJitter caps the random component added to error backoff.
const maxJitter = time.Second

// rateLimitDelay is the sleep after an HTTP 429 on the given attempt
// (1-based): baseDelay * attempt * 2.
func rateLimitDelay(baseDelay time.Duration, attempt int) time.Duration {
	return baseDelay * time.Duration(attempt) * 2
}

// errorDelay is the sleep after a failed attempt (1-based):
// baseDelay * 2^(attempt-1) + jitter.
//
// The jitter is drawn from [0, min(1s, baseDelay)). With the usual
// base delay of a second or more this is the full [0,1s) range; with a
// smaller base it keeps successive delays strictly increasing, because
// the exponential step always exceeds the largest possible jitter.
func errorDelay(baseDelay time.Duration, attempt int, jitter func(limit time.Duration) time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseDelay << (attempt - 1)
	limit := min(maxJitter, baseDelay)
	if limit > 0 && jitter != nil {
		d += jitter(limit)
	}
	return d
}

// randomJitter returns a uniform duration in [0, limit) from crypto/rand.
func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(randomIndex(int(limit)))
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
