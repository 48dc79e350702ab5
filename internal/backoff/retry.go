package backoff

import (
	"context"
	"errors"
)

// ErrExhausted is returned once every retry attempt has failed.
var ErrExhausted = errors.New("backoff: retry attempts exhausted")

// Result holds the outcome of a Retry call.
type Result[T any] struct {
	// Value is the successful return value.
	Value T
	// Attempts is the number of attempts made (1-indexed).
	Attempts int
	// LastError is the error from the final attempt.
	LastError error
}

// Retry calls fn up to maxAttempts times, sleeping per policy between
// failures. fn receives the 1-indexed attempt number; it should return
// (value, nil) on success or (zero, error) to trigger another attempt.
// Context cancellation is checked before each attempt.
func Retry[T any](
	ctx context.Context,
	policy Policy,
	maxAttempts int,
	fn func(attempt int) (T, error),
) (Result[T], error) {
	var result Result[T]

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		if err := ctx.Err(); err != nil {
			return result, err
		}

		value, err := fn(attempt)
		if err == nil {
			result.Value = value
			return result, nil
		}
		result.LastError = err

		if attempt < maxAttempts {
			if err := policy.Wait(ctx, attempt); err != nil {
				return result, err
			}
		}
	}

	return result, ErrExhausted
}

// Func retries fn with the default policy, returning only the value and
// final error for callers that don't need attempt bookkeeping.
func Func[T any](
	ctx context.Context,
	maxAttempts int,
	fn func(attempt int) (T, error),
) (T, error) {
	result, err := Retry(ctx, DefaultPolicy(), maxAttempts, fn)
	return result.Value, err
}

// Simple retries a side-effecting fn (no return value) with the default
// policy.
func Simple(
	ctx context.Context,
	maxAttempts int,
	fn func() error,
) error {
	_, err := Retry(ctx, DefaultPolicy(), maxAttempts, func(_ int) (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
