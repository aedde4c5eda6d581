// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the extraction and
// spreadsheet clients.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 and 503 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// RequestIDHeader carries a per-request correlation ID to the server.
const RequestIDHeader = "X-Request-ID"

const defaultMaxRetries = 3

// NoRetries passed as maxRetries sends the request once.
const NoRetries = -1

// ConfiguredRetries maps a configured retry count, where 0 switches
// retries off, to a DoWithRetry argument.
func ConfiguredRetries(n int) int {
	if n <= 0 {
		return NoRetries
	}
	return n
}

// Retryable reports whether a response status is worth retrying: the
// server is rate limiting (429) or temporarily unavailable (503).
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes an HTTP request and retries on 429 and 503 with
// exponential backoff starting at RetryBaseDelay. A Retry-After header
// given in seconds replaces the computed delay when it is longer.
//
// When maxRetries is 0 the default (3) is used; a negative value
// disables retries. Request bodies are replayed through req.GetBody,
// so callers must build requests from a bytes.Buffer, bytes.Reader or strings.Reader. Every attempt carries
// the same X-Request-ID, generated when the request has none. If the
// context is cancelled during a backoff wait the function returns
// ctx.Err(). After exhausting retries the last retryable response is
// returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, logger *slog.Logger) (*http.Response, error) {
	switch {
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	requestID := req.Header.Get(RequestIDHeader)

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if after := retryAfter(resp.Header.Get("Retry-After")); after > backoff {
			backoff = after
		}
		logger.Warn("http.retry",
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"request_id", requestID,
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryAfter parses a Retry-After header expressed in seconds. HTTP
// dates and malformed values yield zero.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
