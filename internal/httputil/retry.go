// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for clients of rate-limited APIs.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff wait after an HTTP 429. Tests
// override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 5

// RetryPolicy controls DoWithRetry.
type RetryPolicy struct {
	// MaxRetries bounds the number of retries; zero means 5.
	MaxRetries int

	// OnRetry, when set, is called before each backoff wait.
	OnRetry func(attempt int, wait time.Duration)
}

// DoWithRetry executes req and retries on HTTP 429 (Too Many Requests).
// The wait doubles from RetryBaseDelay on each attempt unless the
// response carries a Retry-After header in seconds, which wins when it
// is longer. After the last retry the 429 response is returned as-is so
// the caller can report it. A cancelled context ends the wait with
// ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	maxRetries := policy.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := RetryBaseDelay << attempt
		if after := retryAfter(resp.Header.Get("Retry-After")); after > wait {
			wait = after
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// retryAfter parses the delay-seconds form of Retry-After. HTTP dates
// and garbage give zero.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
