// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns termination signals into context cancellation.
//
// The first signal of a kind is logged and otherwise ignored so that the running step can
// finish and its failure report is still printed. A second signal of the same kind cancels
// the context, which kills the running child process.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New creates a channel that receives the OS signals that should terminate the process.
// If no signals are given SIGINT, SIGTERM and SIGQUIT are used.
// Call Stop with the channel when it is no longer needed.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop stops delivery of signals to the channel.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}

// Watch monitors the signal channel until it is closed or ctx is done.
// It calls cancel on the second signal of a given type.
func Watch(ctx context.Context, sigCh <-chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "received second signal, stopping the running step", "signal", sig.String())
				cancel()

				return
			}

			ctxlog.Warn(ctx, "received signal, waiting for the running step to finish, send again to stop it",
				"signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
