// Package retry provides a bounded fixed-delay retry policy, used to
// absorb eventual-consistency lag in the remote store after
// state-changing calls such as session creation.
package retry

import (
	"context"
	"time"
)

// Policy retries an operation a fixed number of times with a fixed
// delay between attempts. The wait between attempts honors context
// cancellation; an attempt already in flight runs to completion.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy matches the remote store's observed settle time after
// session creation.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 400 * time.Millisecond}
}

// Do runs op until it succeeds or the attempt budget is spent. The last
// attempt's error is returned; a context error is returned if the wait
// between attempts is cancelled.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err = op(ctx); err == nil {
			return nil
		}
	}
	return err
}
