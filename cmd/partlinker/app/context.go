package app

import (
	"context"
	"os/signal"
	"syscall"
)

// Context returns the root context for a CLI invocation, cancelled on
// SIGINT or SIGTERM. Long-running commands — a generate --watch loop, a
// paged category sync — check it between units of work and stop cleanly.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
