// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the source adapters.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff after a 429. Tests override this to
// avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryDelay caps any single wait, including one requested by a
// Retry-After header.
var MaxRetryDelay = 30 * time.Second

// DoWithRetry executes req and retries HTTP 429 (Too Many Requests) up to
// maxRetries times. maxRetries <= 0 means a single attempt, so the 429 goes
// straight back to the caller.
//
// The wait before retry n is RetryBaseDelay * 2^n, or the server's
// Retry-After when that is longer, never above MaxRetryDelay. Requests with
// a body are replayed through req.GetBody. Cancelling ctx during a wait
// returns ctx.Err(). After the last retry the final 429 response is
// returned for the caller to inspect.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		attemptReq, err := replay(ctx, req, attempt)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryDelay(attempt, resp.Header.Get("Retry-After"), time.Now())
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// replay clones req for attempt, rewinding its body after the first try.
func replay(ctx context.Context, req *http.Request, attempt int) (*http.Request, error) {
	r := req.Clone(ctx)
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("retrying %s %s: request body cannot be replayed", req.Method, req.URL.Redacted())
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewinding request body: %w", err)
	}
	r.Body = body
	return r, nil
}

// retryDelay returns the wait before retrying after attempt. retryAfter is
// the raw header: delta seconds or an HTTP date.
func retryDelay(attempt int, retryAfter string, now time.Time) time.Duration {
	wait := RetryBaseDelay << attempt
	if wait <= 0 || wait > MaxRetryDelay {
		wait = MaxRetryDelay
	}

	var asked time.Duration
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		asked = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(retryAfter); err == nil {
		asked = at.Sub(now)
	}
	if asked > wait {
		wait = min(asked, MaxRetryDelay)
	}
	return wait
}
