// Package probe performs bounded-time TCP reachability checks.
package probe

import (
	"fmt"
	"log/slog"
	"net"
	"time"
)

// DefaultTimeout bounds a single probe. Localhost connects either succeed or
// fail well inside this window.
const DefaultTimeout = 100 * time.Millisecond

// Result is the outcome of a single TCP probe.
type Result int

const (
	Open Result = iota
	Closed
	TimedOut
)

// String returns a human-readable representation of the probe result
func (r Result) String() string {
	switch r {
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	case TimedOut:
		return "TimedOut"
	default:
		return "Unknown"
	}
}

// IsOpen reports whether the probe reached a listening socket. Refused and
// timed-out probes are equivalent for scan purposes.
func (r Result) IsOpen() bool { return r == Open }

// Prober attempts raw transport-layer connects with a short deadline.
type Prober struct {
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Prober. A non-positive timeout falls back to DefaultTimeout.
func New(timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{timeout: timeout, logger: logger}
}

// TCP attempts a single TCP connect to host:port. No retries; the only side
// effect is the transient socket, which is closed before returning.
func (p *Prober) TCP(host string, port int) Result {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	conn, err := net.DialTimeout("tcp", addr, p.timeout)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			p.logger.Debug("probe timed out", slog.String("addr", addr))
			return TimedOut
		}
		p.logger.Debug("probe refused", slog.String("addr", addr), slog.Any("error", err))
		return Closed
	}

	if err := conn.Close(); err != nil {
		p.logger.Debug("failed to close probe socket", slog.String("addr", addr), slog.Any("error", err))
	}
	return Open
}
