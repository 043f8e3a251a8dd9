// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
)

const (
	// SpawnFailureExitCode is the exit code reported when a process could not be started.
	// It matches the status a POSIX shell reports for a command that was not found.
	SpawnFailureExitCode = 127
	// waitDelay bounds how long Wait blocks on output pipes held open by grandchildren.
	waitDelay = 10 * time.Second
)

var _ Runnable = (*OSCommand)(nil)

// ErrCouldNotStartProcess is returned when the process could not be started.
var ErrCouldNotStartProcess = errors.New("could not start process")

// OSCommand represents a single external command to be run as a step.
type OSCommand struct {
	*BaseCommand
	Path string   // The program to run, either a path or a name looked up in PATH.
	Args []string // Arguments to the program, do not include the program itself.
}

// New returns an OSCommand that runs program with args in the inherited directory and environment.
func New(label, program string, args ...string) *OSCommand {
	return &OSCommand{
		BaseCommand: NewBaseCommand(label, "", nil),
		Path:        program,
		Args:        args,
	}
}

// Exec runs program with args under the watchdog and returns its exit status.
// A program that cannot be started returns SpawnFailureExitCode.
func Exec(ctx context.Context, label, program string, args ...string) int {
	return New(label, program, args...).Run(ctx)[0].ExitCode
}

// Run implements the Runnable interface for OSCommand.
// The process output is only shown if the process fails, unless Stream is set.
func (c *OSCommand) Run(ctx context.Context) Results {
	if c.BaseCommand == nil {
		c.BaseCommand = NewBaseCommand("", "", nil)
	}

	logger := ctxlog.Logger(ctx).
		With("runnableType", "OSCommand").
		With("label", FullLabel(c))

	logger.Debug("command info", "path", c.Path, "cwd", c.Cwd, "args", c.Args)

	header := failureHeader{
		kind: "Process",
		argv: append([]string{c.Path}, c.Args...),
	}

	res := supervise(ctx, c.BaseCommand, header, c.exec)

	return Results{res}
}

func (c *OSCommand) exec(ctx context.Context, w io.Writer) (int, error) {
	logger := ctxlog.Logger(ctx).With("label", c.GetLabel())

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Cwd
	cmd.Env = c.environ()
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.WaitDelay = waitDelay

	logger.Debug("starting process")

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(w, "could not start %s: %s\n", c.Path, err.Error()) //nolint:errcheck
		logger.Debug("process could not be started", "error", err)

		return SpawnFailureExitCode, errors.Join(ErrCouldNotStartProcess, err)
	}

	logger.Debug("process started", "pid", cmd.Process.Pid)

	err := cmd.Wait()
	code := cmd.ProcessState.ExitCode()

	if err == nil {
		return code, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Info("context done, process killed", "pid", cmd.Process.Pid)
		fmt.Fprintln(w, "context done, process killed") //nolint:errcheck

		return code, errors.Join(ErrCancelled, ctxErr)
	}

	// A non-zero exit is reported through the exit code alone.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return code, nil
	}

	return code, err //nolint:wrapcheck
}

func (c *OSCommand) environ() []string {
	env := os.Environ()

	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}

	return env
}
