// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textgen

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

type retrying struct {
	next       Generator
	maxRetries int
	logger     *zap.Logger
}

// WithRetry wraps g so that failed calls are retried up to maxRetries times
// with exponential backoff. Context errors are never retried.
func WithRetry(g Generator, maxRetries int, logger *zap.Logger) Generator {
	if maxRetries <= 0 {
		return g
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retrying{next: g, maxRetries: maxRetries, logger: logger.Named("textgen")}
}

func (r *retrying) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			r.logger.Debug("retrying generation",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := r.next.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}
	return "", eris.Wrapf(lastErr, "after %d retries", r.maxRetries)
}
