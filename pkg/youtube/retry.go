package youtube

import (
	"context"
	"math/rand"
	"time"

	"github.com/ytsift/ytsift/pkg/log"
)

// backoffDelays are the waits between transient-failure attempts. Each delay
// gains up to 25% jitter so concurrent preset fetches do not retry in step.
var backoffDelays = []time.Duration{
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// WithRetry runs fn, retrying transient failures with increasing delay plus
// jitter. Credential-class errors and context cancellation return
// immediately: the caller handles key fallback, and backing off cannot fix a
// rejected key.
func WithRetry(ctx context.Context, logger *log.Logger, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt >= len(backoffDelays) {
			return lastErr
		}

		delay := backoffDelays[attempt]
		delay += time.Duration(rand.Int63n(int64(delay) / 4))
		logger.Debugf("transient failure (attempt %d), retrying in %v: %v", attempt+1, delay, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
