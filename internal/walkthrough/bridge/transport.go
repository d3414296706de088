// transport.go — page<->coordinator transport error classification and
// retry (spec.md §5, §7). Error classification is adapted from
// internal/bridge/conn.go's IsConnectionError (typed net errors first,
// string fallback for errors that lost their type through wrapping); the
// retry loop itself uses github.com/cenkalti/backoff/v5 (neurobridge)
// instead of the teacher's unbounded sleep loop, since the exhaustion case
// here must surface to the caller per spec.md §7 rather than loop forever.
package bridge

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/cenkalti/backoff/v5"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
)

// TransportErrorCode mirrors the teacher's extension_timeout/extension_error
// taxonomy (internal/mcp/errors.go), scoped to this bridge's transport.
type TransportErrorCode string

const (
	ErrExtensionTimeout TransportErrorCode = "extension_timeout"
	ErrExtensionError   TransportErrorCode = "extension_error"
)

// TransportError is a retryable transport failure.
type TransportError struct {
	Code    TransportErrorCode
	Message string
}

func (e *TransportError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// IsConnectionError reports whether err indicates the page/tab is
// unreachable (extension disconnected, tab closed mid-send).
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "context deadline exceeded")
}

// SendWithRetry calls send with exponential backoff between attempts,
// making at most cfg.TransportMaxRetries attempts in total, retrying only
// errors IsConnectionError
// classifies as transport failures; any other error is returned
// immediately via backoff.Permanent so it is never retried (spec.md §7
// "Transport errors in message sends are retried...on exhaustion they
// surface to the caller").
func SendWithRetry(ctx context.Context, cfg config.Config, send func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.TransportBaseDelay

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		sendErr := send(ctx)
		if sendErr == nil {
			return struct{}{}, nil
		}
		if !IsConnectionError(sendErr) {
			return struct{}{}, backoff.Permanent(sendErr)
		}
		return struct{}{}, sendErr
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(cfg.TransportMaxRetries)))
	return err
}
