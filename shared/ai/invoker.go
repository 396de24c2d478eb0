package ai

import (
	"context"
	"errors"
	"time"

	"learning-path/internal/models"
	"learning-path/shared/logging"
)

// Invoker is the model invoker: one call to the text-generation service,
// retried with backoff while the service throttles.
type Invoker struct {
	generator TextGenerator
	backoff   *Backoff
	log       *logging.Logger
}

func NewInvoker(generator TextGenerator, backoff *Backoff, log *logging.Logger) *Invoker {
	return &Invoker{
		generator: generator,
		backoff:   backoff,
		log:       log.With("service", "Invoker", "provider", generator.Name()),
	}
}

func isThrottled(err error) bool {
	var throttled *models.ThrottledError
	return errors.As(err, &throttled)
}

// Invoke returns the raw model text. Throttling that outlasts the retry
// budget surfaces as *models.GenerationError; anything else surfaces
// immediately as *models.UpstreamError.
func (inv *Invoker) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	var text string

	attempts, err := inv.backoff.Retry(ctx, isThrottled,
		func(attempt int, wait time.Duration, err error) {
			inv.log.Warn("Text generation throttled, backing off",
				"model", modelID,
				"attempt", attempt,
				"max_attempts", inv.backoff.MaxAttempts,
				"wait", wait.String(),
				"error", err.Error(),
			)
		},
		func() error {
			out, err := inv.generator.Generate(ctx, modelID, prompt)
			if err != nil {
				return err
			}
			text = out
			return nil
		})

	switch {
	case err == nil:
		return text, nil
	case isThrottled(err):
		return "", &models.GenerationError{Model: modelID, Attempts: attempts, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", err
	}

	var upstream *models.UpstreamError
	if errors.As(err, &upstream) {
		return "", err
	}
	return "", &models.UpstreamError{Service: inv.generator.Name(), Err: err}
}
