// Package platform holds the connection constructors for the service's backing stores.
package platform

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// Connect runs dial with exponential backoff until it succeeds, ctx ends or the
// attempts run out. Every dial error is treated as transient.
func Connect(ctx context.Context, dial func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := dial(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
