package backend

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/netx"
	"github.com/sethvargo/go-retry"
)

const (
	retryBase     = 500 * time.Millisecond
	retryCap      = 30 * time.Second
	retryMaxTries = 5
)

// fullJitterBackoff wraps an exponential schedule and replaces each
// computed delay with a uniform random draw from [0, delay] (§4.2's "full
// jitter" rule), rather than go-retry's own percentage jitter which jitters
// around the delay instead of from zero.
type fullJitterBackoff struct {
	next retry.Backoff
}

func (b *fullJitterBackoff) Next() (time.Duration, bool) {
	d, stop := b.next.Next()
	if stop {
		return 0, true
	}
	return time.Duration(rand.Int63n(int64(d) + 1)), false
}

func newBackoff() retry.Backoff {
	b := retry.NewExponential(retryBase)
	b = retry.WithCappedDuration(retryCap, b)
	b = retry.WithMaxRetries(retryMaxTries-1, b)
	return &fullJitterBackoff{next: b}
}

// retryMode selects which failures a call is allowed to retry on.
type retryMode int

const (
	// retryOnAnyTransient retries both connection-level failures and any
	// response classified as transient or rate-limited. Used for reads and
	// for the idempotent chunk PUT/GET (§4.2).
	retryOnAnyTransient retryMode = iota
	// retryOnConnectionOnly retries connection-level failures only, never a
	// received HTTP response. Used for finish-upload, move, rename (§4.2).
	retryOnConnectionOnly
)

// withRetry runs fn under the backoff policy selected by mode. In
// retryOnAnyTransient mode a 429 response's Retry-After is waited out
// first, and the computed backoff delay still follows it.
func withRetry(ctx context.Context, mode retryMode, fn func(ctx context.Context) error) error {
	b := newBackoff()
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var rle *netx.RateLimitedError
		if mode == retryOnAnyTransient && errors.As(err, &rle) {
			if rle.RetryAfter > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(rle.RetryAfter):
				}
			}
			return retry.RetryableError(err)
		}

		switch mode {
		case retryOnAnyTransient:
			if common.IsKind(err, common.KindTransient) {
				return retry.RetryableError(err)
			}
			return err
		case retryOnConnectionOnly:
			var ce *netx.ConnectionError
			if errors.As(err, &ce) {
				return retry.RetryableError(err)
			}
			return err
		default:
			return err
		}
	})
}
