// Package netutil provides port allocation and port waiting helpers.
//
// Availability checks are advisory: nothing is reserved after a probe, so a
// caller must bind the returned port immediately and be prepared to retry if
// another process claimed it in between.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// MaxPort is the highest valid TCP port number.
const MaxPort = 65535

var (
	// ErrNoAvailablePort is returned when a search window is exhausted.
	ErrNoAvailablePort = errors.New("ran out of ports to search; none is available")

	// ErrInvalidPortRange is returned for non-positive bounds or counts.
	ErrInvalidPortRange = errors.New("invalid port range")
)

// IsPortAvailable reports whether a listener can be bound to port on the
// wildcard address. The probe listener is closed before returning.
func IsPortAvailable(port int) bool {
	if port < 1 || port > MaxPort {
		return false
	}
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// FindAvailablePort returns the first available port in [from, from+window).
func FindAvailablePort(from, window int) (int, error) {
	end, err := windowEnd(from, window)
	if err != nil {
		return 0, err
	}

	for port := from; port < end; port++ {
		if IsPortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("%w (searched %d-%d)", ErrNoAvailablePort, from, end-1)
}

// FindAvailablePorts returns the first start in [from, from+window) for which
// every port in [start, start+count) is available at check time.
func FindAvailablePorts(from, window, count int) (int, error) {
	if count < 1 {
		return 0, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidPortRange, count)
	}
	end, err := windowEnd(from, window)
	if err != nil {
		return 0, err
	}

	for start := from; start < end; start++ {
		if start+count-1 > MaxPort {
			break
		}
		if rangeAvailable(start, count) {
			return start, nil
		}
	}
	return 0, fmt.Errorf("%w (no %d contiguous ports starting in %d-%d)", ErrNoAvailablePort, count, from, end-1)
}

func rangeAvailable(start, count int) bool {
	for port := start; port < start+count; port++ {
		if !IsPortAvailable(port) {
			return false
		}
	}
	return true
}

// windowEnd validates the window and returns its exclusive end, clamped to
// the valid port space.
func windowEnd(from, window int) (int, error) {
	if from < 1 || from > MaxPort {
		return 0, fmt.Errorf("%w: from must be within 1-%d, got %d", ErrInvalidPortRange, MaxPort, from)
	}
	if window < 1 {
		return 0, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidPortRange, window)
	}
	return min(from+window, MaxPort+1), nil
}

// WaitForPort waits for a TCP port to be open on the target host.
// It retries every second until the port is accessible or the timeout is reached.
func WaitForPort(ctx context.Context, host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Check immediately before waiting for ticker
	if conn, err := net.DialTimeout("tcp", address, 2*time.Second); err == nil {
		_ = conn.Close()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("timeout waiting for %s", address)
			}
			return ctx.Err()
		case <-ticker.C:
			conn, err := net.DialTimeout("tcp", address, 2*time.Second)
			if err == nil {
				_ = conn.Close()
				return nil
			}
		}
	}
}
