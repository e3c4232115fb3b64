//go:build !windows
// +build !windows

package main

import (
	"context"

	"github.com/5TUM8L3/vigia-fogo/internal/monitor"
)

// runTray has no tray to run on non-Windows platforms; the monitor just
// keeps polling headless until the signal context is cancelled.
func runTray(ctx context.Context, _ *monitor.Session, _ func()) {
	<-ctx.Done()
}
