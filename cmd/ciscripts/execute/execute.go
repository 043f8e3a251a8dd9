// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package execute contains the exec subcommand, which runs a single program under the watchdog.
package execute

import (
	"context"
	"errors"
	"strings"

	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/cmdstate"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const argsSeparator = "--"

// ErrNoProgram is returned when exec is given nothing to run.
var ErrNoProgram = errors.New("no program given, usage: ciscripts exec -- program [args...]")

// ExecCmd runs one program with its arguments.
var ExecCmd = &cli.Command{
	Name:      "exec",
	Usage:     "Run one program with a heartbeat, showing its output only if it fails",
	ArgsUsage: "-- program [args...]",
	Description: `Run a single program under the watchdog.
A heartbeat is printed while the program runs and its combined output is captured.
If it fails, the output is printed followed by a notice about a possibly stale build cache.
Arguments after the program are passed to it unchanged.`,
	SkipFlagParsing: true,
	Action:          actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	ctxlog.Debug(ctx, "Running exec command")

	argv := cmd.Args().Slice()
	if len(argv) > 0 && argv[0] == argsSeparator {
		argv = argv[1:]
	}

	if len(argv) == 0 {
		return cmdstate.ConfigError(ctx, cmd, ErrNoProgram)
	}

	step := runbatch.New(strings.Join(argv, " "), argv[0], argv[1:]...)

	return cmdstate.Finish(ctx, cmd, step.Run(ctx))
}
