package remoteclient

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"lrcsync/internal/lrcerrors"
)

const (
	maxAttempts           = 4
	initialBackoff        = 500 * time.Millisecond
	backoffFactor         = 2
	maxBackoff            = 8 * time.Second
	maxRetryAfter         = 60 * time.Second
	defaultAttemptTimeout = 15 * time.Second
	defaultCallBudget     = 60 * time.Second
)

// attemptError is the classified outcome of one HTTP attempt, used to
// decide whether executeWithRetry should back off and retry or return.
type attemptError struct {
	remote *lrcerrors.RemoteError
	// retryAfter overrides the exponential backoff when the upstream sent a
	// Retry-After header (429 responses).
	retryAfter time.Duration
}

func (e *attemptError) Error() string { return e.remote.Error() }

// executeWithRetry runs newRequest and issues it, retrying on a retryable
// classification up to maxAttempts with exponential backoff plus jitter,
// honoring a Retry-After header on 429s, and bounding the whole call
// (including retries) by the client's call budget.
func (c *Client) executeWithRetry(ctx context.Context, newRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	deadline := time.Now().Add(c.callBudget)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if remaining := time.Until(deadline); remaining <= 0 {
			return nil, lrcerrors.NewRemoteError(lrcerrors.RemoteTimeout, "call budget exhausted", lastErr)
		}

		if err := c.limiter.wait(ctx); err != nil {
			return nil, lrcerrors.NewRemoteError(lrcerrors.RemoteNetwork, "rate limiter wait cancelled", err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		req, err := newRequest(attemptCtx)
		if err != nil {
			cancel()
			return nil, lrcerrors.Wrap(lrcerrors.ErrRemote, "remoteclient", "build request", "", err)
		}

		resp, doErr := c.http.Do(req)
		if doErr == nil {
			if classified := classifyStatus(resp); classified != nil {
				io.Copy(io.Discard, resp.Body) //nolint:errcheck
				resp.Body.Close()
				cancel()
				lastErr = classified
				if !classified.remote.Retryable() || attempt == maxAttempts {
					return nil, classified.remote
				}
				if err := c.sleepBeforeRetry(ctx, attempt, classified.retryAfter); err != nil {
					return nil, lrcerrors.NewRemoteError(lrcerrors.RemoteNetwork, "retry wait cancelled", err)
				}
				continue
			}
			cancel()
			return resp, nil
		}
		cancel()

		classified := classifyTransportError(doErr)
		lastErr = classified
		if !classified.remote.Retryable() || attempt == maxAttempts {
			return nil, classified.remote
		}
		if err := c.sleepBeforeRetry(ctx, attempt, 0); err != nil {
			return nil, lrcerrors.NewRemoteError(lrcerrors.RemoteNetwork, "retry wait cancelled", err)
		}
	}
	if ae, ok := lastErr.(*attemptError); ok {
		return nil, ae.remote
	}
	return nil, lrcerrors.NewRemoteError(lrcerrors.RemoteNetwork, "exhausted retries", nil)
}

func (c *Client) sleepBeforeRetry(ctx context.Context, attempt int, retryAfter time.Duration) error {
	backoff := retryAfter
	if backoff <= 0 {
		backoff = exponentialBackoff(attempt)
	}
	return sleepWithContext(ctx, backoff)
}

// exponentialBackoff returns the base-2 backoff for the given attempt number
// (1-indexed), capped at maxBackoff, with up to 20% jitter added so that
// many clients retrying at once do not stampede in lockstep.
func exponentialBackoff(attempt int) time.Duration {
	backoff := initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= backoffFactor
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(backoff) / 5))
	return backoff + jitter
}

// classifyStatus inspects a successful HTTP round trip's status code.
// Returns nil when the response should be handed back to the caller as-is
// (2xx, 404 treated as a valid "no result" by callers).
func classifyStatus(resp *http.Response) *attemptError {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &attemptError{
			remote:     lrcerrors.NewRemoteError(lrcerrors.RemoteRateLimited, "rate limited by remote catalog", nil),
			retryAfter: wait,
		}
	case resp.StatusCode >= 500:
		return &attemptError{remote: lrcerrors.NewRemoteError(lrcerrors.RemoteHTTP5xx, resp.Status, nil)}
	default:
		return &attemptError{remote: lrcerrors.NewRemoteError(lrcerrors.RemoteHTTP4xx, resp.Status, nil)}
	}
}

func classifyTransportError(err error) *attemptError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &attemptError{remote: lrcerrors.NewRemoteError(lrcerrors.RemoteTimeout, "request timed out", err)}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &attemptError{remote: lrcerrors.NewRemoteError(lrcerrors.RemoteTimeout, "request timed out", err)}
	}
	return &attemptError{remote: lrcerrors.NewRemoteError(lrcerrors.RemoteNetwork, "request failed", err)}
}

// parseRetryAfter reads a Retry-After header value (seconds form only, the
// only form the remote catalog sends) and caps it at maxRetryAfter.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxRetryAfter {
		wait = maxRetryAfter
	}
	return wait
}
