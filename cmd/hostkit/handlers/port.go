package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/hostkit/internal/metrics"
	"github.com/imamik/hostkit/internal/util/netutil"
)

// PortFind prints the first free port, or the first port of a free run of
// count ports, in [from, from+window).
func PortFind(env *Env, from, window, count int) error {
	var (
		port int
		err  error
	)
	if count == 1 {
		port, err = netutil.FindAvailablePort(from, window)
	} else {
		port, err = netutil.FindAvailablePorts(from, window, count)
	}
	if err != nil {
		metrics.RecordPortSearch(metrics.ResultFailure)
		return err
	}
	metrics.RecordPortSearch(metrics.ResultSuccess)
	env.printf("%d\n", port)
	return nil
}

// PortWait blocks until host:port accepts TCP connections. A zero timeout
// uses the configured port wait.
func PortWait(ctx context.Context, env *Env, host string, port int, timeout time.Duration) error {
	if timeout == 0 {
		timeout = env.Timeouts.Port
	}
	if err := netutil.WaitForPort(ctx, host, port, timeout); err != nil {
		return fmt.Errorf("port %s:%d not reachable: %w", host, port, err)
	}
	env.printf("%s:%d is accepting connections\n", host, port)
	return nil
}
