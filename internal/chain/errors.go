package chain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Upstream errors. Callers may retry with backoff; the client itself
// performs no implicit retries so a single computation run stays
// deterministic.
var (
	// ErrUpstreamTimeout means the endpoint did not respond within the
	// request's deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamUnavailable means the endpoint could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound means the requested account does not exist on chain.
	ErrNotFound = errors.New("account not found")
)

// RPC error codes surfaced by the platform's read endpoint.
const (
	rpcCodeNotFound = -32001
)

// classifyTransport maps a transport-level failure onto the upstream
// taxonomy, preserving the cause.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
