package ai

import (
	"context"
	"time"
)

// Backoff is the retry policy shared by every text-generation call:
// up to MaxAttempts tries, waiting BaseDelay*2^attempt between them.
type Backoff struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewBackoff(maxAttempts int, baseDelay time.Duration) *Backoff {
	return &Backoff{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
	}
}

// Delay returns the wait after the given zero-based attempt.
func (b *Backoff) Delay(attempt int) time.Duration {
	return b.BaseDelay << uint(attempt)
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. onRetry, when set, is called before each wait.
// It returns the number of attempts made.
func (b *Backoff) Retry(ctx context.Context, retryable func(error) bool, onRetry func(attempt int, wait time.Duration, err error), fn func() error) (int, error) {
	maxAttempts := b.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt, ctxErr
		}

		err = fn()
		if err == nil || !retryable(err) {
			return attempt + 1, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		wait := b.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, wait, err)
		}
		if sleepErr := b.sleep(ctx, wait); sleepErr != nil {
			return attempt + 1, sleepErr
		}
	}
	return maxAttempts, err
}

func (b *Backoff) sleep(ctx context.Context, d time.Duration) error {
	if b.Sleep != nil {
		return b.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
