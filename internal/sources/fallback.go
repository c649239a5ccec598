package sources

import (
	"context"

	"go.uber.org/zap"
)

// Attempt tries one candidate. ok=false or a non-nil error moves on to the
// next candidate; neither aborts the sequence.
type Attempt[T any] func(ctx context.Context, candidate string) (value T, ok bool, err error)

// FirstSuccess tries candidates strictly in order and returns the first
// accepted value and the candidate that produced it. Failures are logged and
// swallowed. It stops early only when ctx is done.
func FirstSuccess[T any](ctx context.Context, source string, candidates []string, try Attempt[T]) (T, string, bool) {
	var zero T

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			zap.L().Debug("fallback abandoned",
				zap.String("source", source),
				zap.Int("remaining", len(candidates)-i),
				zap.Error(ctx.Err()),
			)
			return zero, "", false
		}

		value, ok, err := try(ctx, candidate)
		if err != nil {
			zap.L().Warn("candidate failed",
				zap.String("source", source),
				zap.String("candidate", candidate),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			zap.L().Debug("candidate rejected",
				zap.String("source", source),
				zap.String("candidate", candidate),
			)
			continue
		}
		return value, candidate, true
	}

	return zero, "", false
}
