package services

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/desertthunder/musicone/internal/shared"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	KindTransport ErrorKind = iota // network path unreachable
	KindTimeout                    // per-attempt deadline exceeded
	KindServer                     // non-2xx with a JSON error body
	KindMalformed                  // body could not be decoded
	KindCanceled                   // caller gave up
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

const (
	msgTimeout         = "the request took too long, check that the server is running"
	msgCanceled        = "request cancelled"
	msgInvalidResponse = "server returned an invalid response"
)

// RequestError is the normalized outcome of a failed backend call.
//
// Error returns Message unchanged so it can be shown as-is.
type RequestError struct {
	Kind    ErrorKind
	Op      string
	Status  int // HTTP status, zero when no response was received
	Message string
	Err     error
}

func (e *RequestError) Error() string { return e.Message }
func (e *RequestError) Unwrap() error { return e.Err }

// Is matches the shared sentinel for the error's kind.
func (e *RequestError) Is(target error) bool {
	switch e.Kind {
	case KindTransport:
		return target == shared.ErrServiceUnavailable
	case KindTimeout:
		return target == shared.ErrTimeout
	case KindServer, KindMalformed:
		return target == shared.ErrAPIRequest
	}
	return false
}

// Retryable reports whether another attempt may succeed.
func (e *RequestError) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindTimeout
}

// IsKind reports whether err is a [*RequestError] of kind k.
func IsKind(err error, k ErrorKind) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == k
}

// normalize turns a failed attempt into a [*RequestError].
//
// ctx is the caller's context, not the per-attempt one.
func normalize(ctx context.Context, op operation, baseURL string, err error) *RequestError {
	if ctx.Err() != nil {
		return &RequestError{Kind: KindCanceled, Op: op.name, Message: msgCanceled, Err: ctx.Err()}
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &RequestError{Kind: KindTimeout, Op: op.name, Message: msgTimeout, Err: err}
	}

	return &RequestError{Kind: KindTransport, Op: op.name, Message: op.unreachable(baseURL), Err: err}
}

// statusError builds the error for a completed non-2xx response.
func statusError(op operation, resp *response) *RequestError {
	status := resp.status
	var payload struct {
		Error string `json:"error"`
	}
	if err := decodeJSON(resp.body, &payload); err != nil {
		msg := fmt.Sprintf("server returned an error: %d", status)
		if resp.reason != "" {
			msg += " " + resp.reason
		}
		return &RequestError{
			Kind:    KindMalformed,
			Op:      op.name,
			Status:  status,
			Message: msg,
			Err:     err,
		}
	}

	msg := payload.Error
	if msg == "" {
		msg = op.fallback
	}
	return &RequestError{Kind: KindServer, Op: op.name, Status: status, Message: msg}
}
