package bridge

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
)

func TestIsConnectionErrorRecognizesNetOpError(t *testing.T) {
	err := &net.OpError{Op: "dial", Err: errors.New("refused")}
	if !IsConnectionError(err) {
		t.Fatalf("expected net.OpError to be classified as a connection error")
	}
}

func TestIsConnectionErrorRecognizesStringFallback(t *testing.T) {
	if !IsConnectionError(errors.New("dial tcp: connection refused")) {
		t.Fatalf("expected string-matched connection refused to classify")
	}
}

func TestIsConnectionErrorRejectsUnrelatedError(t *testing.T) {
	if IsConnectionError(errors.New("boom")) {
		t.Fatalf("expected unrelated error to not classify as connection error")
	}
}

func TestIsConnectionErrorNilIsFalse(t *testing.T) {
	if IsConnectionError(nil) {
		t.Fatalf("expected nil to never classify")
	}
}

func TestSendWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := config.Default()
	cfg.TransportMaxRetries = 5
	attempts := 0
	err := SendWithRetry(context.Background(), cfg, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return &net.OpError{Op: "write", Err: errors.New("connection refused")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestSendWithRetryDoesNotRetryNonTransportError(t *testing.T) {
	cfg := config.Default()
	attempts := 0
	permanentErr := errors.New("validation failed")
	err := SendWithRetry(context.Background(), cfg, func(context.Context) error {
		attempts++
		return permanentErr
	})
	if err == nil {
		t.Fatalf("expected error to surface")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly one attempt for a non-transport error, got %d", attempts)
	}
}

func TestSendWithRetryExhaustsAndSurfaces(t *testing.T) {
	cfg := config.Default()
	cfg.TransportMaxRetries = 2
	attempts := 0
	connErr := &net.OpError{Op: "write", Err: errors.New("connection refused")}
	err := SendWithRetry(context.Background(), cfg, func(context.Context) error {
		attempts++
		return connErr
	})
	if err == nil {
		t.Fatalf("expected retries to exhaust and surface the error")
	}
	if attempts != 2 {
		t.Fatalf("expected exactly TransportMaxRetries attempts, got %d", attempts)
	}
}
