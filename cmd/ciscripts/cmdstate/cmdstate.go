// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate holds the global flags shared by every subcommand and the
// helpers that apply them and turn step results into an exit status.
package cmdstate

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matt-FFFFFF/ciscripts/internal/color"
	"github.com/matt-FFFFFF/ciscripts/internal/commands/commandinpath"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	HeartbeatIntervalFlag = "heartbeat-interval"
	StreamFlag            = "stream"
	SummaryFlag           = "summary"
	LogLevelFlag          = "log-level"
	LogFormatFlag         = "log-format"
	NoColorFlag           = "no-color"

	// HeartbeatIntervalEnvVar overrides the default heartbeat interval.
	HeartbeatIntervalEnvVar = "CISCRIPTS_HEARTBEAT_INTERVAL"
	// StreamEnvVar enables streaming of step output.
	StreamEnvVar = "CISCRIPTS_ALWAYS_PRINT_PROCESS_OUTPUT"

	logFormatPretty = "pretty"
	logFormatJSON   = "json"

	cliExitStr = ""
)

// DefaultHeartbeatInterval is the heartbeat interval when neither the flag nor the environment sets one.
const DefaultHeartbeatInterval = 60 * time.Second

// ErrLogFormat is returned when --log-format is not one of the known formats.
var ErrLogFormat = fmt.Errorf("log format must be %q or %q", logFormatPretty, logFormatJSON)

// Flags returns a new set of the global flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    HeartbeatIntervalFlag,
			Usage:   "How often to print a heartbeat while a step runs, zero disables it",
			Value:   DefaultHeartbeatInterval,
			Sources: cli.EnvVars(HeartbeatIntervalEnvVar),
		},
		&cli.BoolFlag{
			Name:    StreamFlag,
			Usage:   "Print step output as it is produced instead of only when the step fails",
			Sources: cli.EnvVars(StreamEnvVar),
		},
		&cli.BoolFlag{
			Name:  SummaryFlag,
			Usage: "Print a summary of every step once all steps have run",
		},
		&cli.StringFlag{
			Name:    LogLevelFlag,
			Usage:   "Diagnostic log level: DEBUG, INFO, WARN or ERROR",
			Sources: cli.EnvVars(ctxlog.LogLevelEnvVar),
		},
		&cli.StringFlag{
			Name:  LogFormatFlag,
			Usage: "Diagnostic log format: pretty or json",
			Value: logFormatPretty,
		},
		&cli.BoolFlag{
			Name:  NoColorFlag,
			Usage: "Disable coloured output",
		},
	}
}

// Before applies the global flags to the runner and the logger.
func Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	runbatch.HeartbeatInterval = cmd.Duration(HeartbeatIntervalFlag)
	runbatch.Stream = cmd.Bool(StreamFlag)
	runbatch.LookPath = commandinpath.Which

	if cmd.Root().Writer != nil {
		runbatch.Stdout = cmd.Root().Writer
	}

	if cmd.Bool(NoColorFlag) {
		color.SetEnabled(false)
	}

	if cmd.IsSet(LogLevelFlag) {
		ctxlog.LevelVar.Set(ctxlog.ParseLevel(cmd.String(LogLevelFlag)))
	}

	errWriter := cmd.Root().ErrWriter

	switch strings.ToLower(cmd.String(LogFormatFlag)) {
	case logFormatPretty, "":
		if errWriter != nil {
			ctx = ctxlog.New(ctx, ctxlog.NewPrettyLogger(errWriter))
		}
	case logFormatJSON:
		if errWriter != nil {
			ctx = ctxlog.New(ctx, ctxlog.NewJSONLogger(errWriter))
		} else {
			ctx = ctxlog.New(ctx, ctxlog.JSONLogger)
		}
	default:
		return ctx, cli.Exit(ErrLogFormat.Error(), 1)
	}

	ctxlog.Debug(ctx, "global flags applied",
		"heartbeatInterval", runbatch.HeartbeatInterval.String(),
		"stream", runbatch.Stream,
	)

	return ctx, nil
}

// Finish prints the summary when requested and returns the failure count as the exit status.
func Finish(ctx context.Context, cmd *cli.Command, res runbatch.Results) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	if cmd.Bool(SummaryFlag) {
		if err := res.Write(runbatch.Stdout); err != nil {
			logger.Error(fmt.Sprintf("Failed to write summary: %s", err.Error()))
		}
	}

	n := res.FailureCount()
	if n == 0 {
		logger.Info("all steps succeeded")
		return nil
	}

	for r := range slices.Values(res.Leaves()) {
		if r.Failed() {
			logger.Info("step failed", "label", r.Label, "exitCode", r.ExitCode)
		}
	}

	logger.Warn("some steps failed, see above for details", "failures", n)

	return cli.Exit(cliExitStr, res.ExitCode())
}

// ConfigError logs err and returns the exit status used when no step could be run.
func ConfigError(ctx context.Context, cmd *cli.Command, err error) error {
	ctxlog.Logger(ctx).With("command", cmd.Name).Error(err.Error())
	return cli.Exit(cliExitStr, 1)
}
