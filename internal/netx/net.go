// Package netx provides the raw HTTP transport primitives the backend
// client builds its retry and error-classification policy on top of:
// sending/receiving raw bytes (never multipart) and turning an HTTP
// response into one of the closed-set error kinds (§4.2, §7).
package netx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/halvardk/vaultctl/internal/common"
)

// AttemptTimeout is the per-HTTP-attempt timeout (§5): 60 seconds.
const AttemptTimeout = 60 * time.Second

// RateLimitedError is returned by ClassifyStatus for a 429 response. It
// carries the parsed Retry-After hint so the backend client's retry
// wrapper can wait it out before its own backoff delay (§4.2).
type RateLimitedError struct {
	Err        *common.Error
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return e.Err.Error() }

// Unwrap exposes the wrapped *common.Error itself to errors.As/errors.Is,
// so its Kind stays visible through the RateLimitedError.
func (e *RateLimitedError) Unwrap() error { return e.Err }

func (e *RateLimitedError) Is(target error) bool { return e.Err.Is(target) }

// ConnectionError marks a failure that happened before any HTTP response
// was obtained (dial failure, timeout, connection reset, body read
// truncated mid-stream). The backend client's retry wrapper uses this
// distinction to retry non-idempotent writes (finish-upload, move, rename)
// only on connection-level failures, never on a received response (§4.2).
type ConnectionError struct {
	Err *common.Error
}

func (e *ConnectionError) Error() string { return e.Err.Error() }

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return e.Err.Is(target) }

// PutBytes sends body as the raw PUT payload to url with the given headers
// and returns the response body. It never wraps body in multipart framing,
// matching §4.2's chunk transport rule.
func PutBytes(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string) ([]byte, error) {
	return doRaw(ctx, client, http.MethodPut, url, body, headers)
}

// GetBytes issues a GET and returns the raw response body.
func GetBytes(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	return doRaw(ctx, client, http.MethodGet, url, nil, headers)
}

// PostJSON sends body (already-marshaled JSON) as the request payload and
// returns the raw response body.
func PostJSON(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string) ([]byte, error) {
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return doRaw(ctx, client, http.MethodPost, url, body, h)
}

func doRaw(ctx context.Context, client *http.Client, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, AttemptTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	// Only the caller's own cancellation is KindCanceled below; an expired
	// attemptCtx is a timeout and surfaces as a ConnectionError.
	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, common.New(common.KindFatal, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, common.New(common.KindCanceled, err)
		}
		return nil, &ConnectionError{Err: common.New(common.KindTransient, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: common.New(common.KindTransient, err)}
	}

	if classErr := ClassifyStatus(resp.StatusCode, resp.Header.Get("Retry-After")); classErr != nil {
		return respBody, classErr
	}
	return respBody, nil
}

// ClassifyStatus maps an HTTP status code (plus an optional Retry-After
// header) to the closed error-kind set of §4.2/§7. A nil return means the
// status was successful (2xx).
func ClassifyStatus(status int, retryAfter string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return common.Newf(common.KindAuth, "http %d", status)
	case status == http.StatusNotFound:
		return common.Newf(common.KindNotFound, "http %d", status)
	case status == http.StatusConflict:
		return common.Newf(common.KindConflict, "http %d", status)
	case status == http.StatusTooManyRequests:
		return &RateLimitedError{
			Err:        common.Newf(common.KindRateLimited, "http %d", status),
			RetryAfter: parseRetryAfter(retryAfter),
		}
	case status >= 500:
		return common.Newf(common.KindTransient, "http %d", status)
	default:
		return common.Newf(common.KindFatal, "http %d", status)
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
