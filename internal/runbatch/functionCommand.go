// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
)

var _ Runnable = (*FunctionCommand)(nil)

// ErrFunctionCmdPanic is the error returned when a function command panics.
// It is constructed with the value that caused the panic.
type ErrFunctionCmdPanic struct {
	v any
}

// Error implements the error interface for ErrFunctionCmdPanic.
func (e *ErrFunctionCmdPanic) Error() string {
	prefix := "function command panic:"

	switch x := e.v.(type) {
	case string:
		return fmt.Sprintf("%s %s", prefix, x)
	case error:
		return fmt.Sprintf("%s %s", prefix, x.Error())
	default:
		return fmt.Sprintf("%s %v", prefix, x)
	}
}

// NewErrFunctionCmdPanic creates a new ErrFunctionCmdPanic with the given value.
func NewErrFunctionCmdPanic(v any) error {
	return &ErrFunctionCmdPanic{v: v}
}

// functionFailureExitCode is the exit status reported for a function command that returned an error.
const functionFailureExitCode = 1

// FunctionCommandFunc is the type of the function that can be run by FunctionCommand.
// Everything written to w is captured like the output of an external process.
type FunctionCommandFunc func(ctx context.Context, workingDirectory string, w io.Writer) error

// FunctionCommand is a step that runs an in-process function under the watchdog.
type FunctionCommand struct {
	*BaseCommand
	Func FunctionCommandFunc // The function to run
}

// Run implements the Runnable interface for FunctionCommand.
func (f *FunctionCommand) Run(ctx context.Context) Results {
	if f.BaseCommand == nil {
		f.BaseCommand = NewBaseCommand("", "", nil)
	}

	logger := ctxlog.Logger(ctx).
		With("runnableType", "FunctionCommand").
		With("label", FullLabel(f))

	if f.Func == nil {
		logger.Debug("no function to run, returning success")
		return Results{{Label: f.GetLabel(), Status: ResultStatusSuccess}}
	}

	header := failureHeader{
		kind: "Step",
		argv: []string{f.GetLabel()},
	}

	return Results{supervise(ctx, f.BaseCommand, header, f.call)}
}

func (f *FunctionCommand) call(ctx context.Context, w io.Writer) (code int, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.Error(ctx, "function command panicked", "label", f.GetLabel(), "panic", r)

			err = NewErrFunctionCmdPanic(r)
			code = functionFailureExitCode

			fmt.Fprintln(w, err.Error()) //nolint:errcheck
		}
	}()

	if err := f.Func(ctx, f.Cwd, w); err != nil {
		fmt.Fprintln(w, err.Error()) //nolint:errcheck

		if ctx.Err() != nil {
			err = errors.Join(ErrCancelled, err)
		}

		return functionFailureExitCode, err
	}

	return 0, nil
}
