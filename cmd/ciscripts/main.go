// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the ciscripts command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/ciscripts"
	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/cache"
	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/cmdstate"
	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/execute"
	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/install"
	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/lint"
	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/run"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		cache.CacheCmd,
		execute.ExecCmd,
		install.InstallCmd,
		lint.LintCmd,
		run.RunCmd,
	},
	Flags:     cmdstate.Flags(),
	Before:    cmdstate.Before,
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "ciscripts",
	Description: `ciscripts runs the commands of a CI job one after another.
Each command gets a heartbeat on the console so the CI supervisor does not kill a quiet job,
and its output is only shown when it fails, followed by a hint that the build cache may be stale.
No command is skipped because an earlier one failed, the exit status is the number of failures.`,
	Usage:     "ciscripts lint --dir .",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", ciscripts.Version, ciscripts.Commit)

	// Step failures are returned as cli exit errors and handled by the cli framework.
	err := rootCmd.Run(ctx, os.Args)

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Info("command completed successfully")
}
