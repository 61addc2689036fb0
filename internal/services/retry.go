package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/musicone/internal/shared"
)

// Policy is the per-attempt deadline and retry budget of one operation.
type Policy struct {
	Timeout time.Duration
	Retries int
}

var (
	// InfoPolicy allows three attempts of 60s each.
	InfoPolicy = Policy{Timeout: 60 * time.Second, Retries: 2}
	// DownloadPolicy allows two attempts of 5m each.
	DownloadPolicy = Policy{Timeout: 300 * time.Second, Retries: 1}
)

// Attempts returns the total number of attempts the policy allows.
func (p Policy) Attempts() int {
	return p.Retries + 1
}

// Backoff returns the wait after the failed attempt with the given zero-based index: 2s, 4s, 6s, ...
func Backoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * 2 * time.Second
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// operation describes one backend endpoint and how its failures read.
type operation struct {
	name        string
	method      string
	path        string
	policy      Policy
	fallback    string
	unreachable func(baseURL string) string
}

// response is a completed HTTP exchange, whatever its status.
type response struct {
	status int
	reason string
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do runs op with retries and returns the first completed response.
//
// Non-2xx responses are returned, not retried; the caller turns them into errors.
func (a *APIService) do(ctx context.Context, op operation, payload any) (*response, error) {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &RequestError{Kind: KindMalformed, Op: op.name, Message: msgInvalidResponse, Err: err}
		}
		body = data
	}

	logger := shared.WithLogger(a.logger, "op", op.name, "request_id", shared.GenerateID())
	attempts := op.policy.Attempts()

	var lastErr *RequestError
	for i := 0; i < attempts; i++ {
		logger.Debug("sending request", "attempt", i+1, "of", attempts)

		resp, err := a.attempt(ctx, op, body)
		if err == nil {
			logger.Debug("response received", "attempt", i+1, "status", resp.status)
			return resp, nil
		}

		lastErr = normalize(ctx, op, a.baseURL, err)
		if !lastErr.Retryable() {
			return nil, lastErr
		}
		logger.Warn("attempt failed", "attempt", i+1, "of", attempts, "kind", lastErr.Kind, "err", err)

		if i < op.policy.Retries {
			wait := Backoff(i)
			logger.Info("waiting before next attempt", "wait", wait)
			if err := a.sleep(ctx, wait); err != nil {
				return nil, normalize(ctx, op, a.baseURL, err)
			}
		}
	}

	return nil, lastErr
}

// attempt issues a single request under its own deadline and reads the whole body.
func (a *APIService) attempt(ctx context.Context, op operation, body []byte) (*response, error) {
	actx, cancel := context.WithTimeout(ctx, op.policy.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(actx, op.method, a.baseURL+op.path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &response{status: resp.StatusCode, reason: reasonPhrase(resp), body: data}, nil
}

func decodeJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// reasonPhrase returns the status text the server sent, e.g. "Not Found" from "404 Not Found".
//
// Falls back to the standard text for the code, which is empty for unknown codes.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
