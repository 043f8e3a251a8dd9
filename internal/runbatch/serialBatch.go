// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
)

var _ Runnable = (*SerialBatch)(nil)

var (
	// ErrSkipOnError is recorded for steps not run because an instant-fail step failed.
	ErrSkipOnError = errors.New("skip execution due to previous error")
	// ErrSkipIntentional is recorded for steps skipped by their own pre-check.
	ErrSkipIntentional = errors.New("intentionally skip execution")
	// ErrResultChildrenHasError is set on a batch result when any of its steps failed.
	ErrResultChildrenHasError = errors.New("result has children with errors")
)

const (
	topLevelIndicator = "==>"
	nestedIndicator   = "..."
	indentUnit        = "    "
)

type depthKey struct{}

// SerialBatch represents a collection of steps, which are run one after another.
// Every step is attempted whatever the outcome of the previous ones, unless a step
// with InstantFail set fails.
type SerialBatch struct {
	*BaseCommand
	Commands []Runnable // The commands or nested batches to run
}

// NewSerialBatch creates a SerialBatch and sets itself as the parent of each command.
func NewSerialBatch(base *BaseCommand, cmds ...Runnable) *SerialBatch {
	if base == nil {
		base = NewBaseCommand("", "", nil)
	}

	b := &SerialBatch{
		BaseCommand: base,
		Commands:    cmds,
	}

	for cmd := range slices.Values(cmds) {
		cmd.SetParent(b)
	}

	return b
}

// Run implements the Runnable interface for SerialBatch.
func (b *SerialBatch) Run(ctx context.Context) Results {
	if b.BaseCommand == nil {
		b.BaseCommand = NewBaseCommand("", "", nil)
	}

	logger := ctxlog.Logger(ctx).
		With("runnableType", "SerialBatch").
		With("label", FullLabel(b))

	depth, _ := ctx.Value(depthKey{}).(int)
	if depth == 0 && b.Label != "" {
		writeBanner(depth, b.Label)
	}

	childCtx := context.WithValue(ctx, depthKey{}, depth+1)
	results := make(Results, 0, len(b.Commands))
	stopped := false

	for cmd := range slices.Values(b.Commands) {
		if stopped {
			results = append(results, skipped(cmd, ErrSkipOnError))
			continue
		}

		if ctx.Err() != nil {
			logger.Info("context done, not starting remaining steps")
			results = append(results, skipped(cmd, errors.Join(ErrCancelled, ctx.Err())))

			continue
		}

		cmd.InheritEnv(b.Env)
		cmd.SetCwd(b.Cwd)

		writeBanner(depth+1, cmd.GetLabel())

		if cmd.ShouldRun(ctx) == ShouldRunActionSkip {
			results = append(results, skipped(cmd, ErrSkipIntentional))
			continue
		}

		childResults := cmd.Run(childCtx)
		results = slices.Concat(results, childResults)

		if cmd.Policy().InstantFail && childResults.HasError() {
			logger.Info("instant-fail step failed, skipping remaining steps", "step", cmd.GetLabel())

			stopped = true
		}
	}

	res := &Result{
		Label:    b.GetLabel(),
		Children: results,
		Status:   ResultStatusSuccess,
	}

	if results.HasError() {
		res.ExitCode = results.ExitCode()
		res.Error = ErrResultChildrenHasError
		res.Status = ResultStatusError
	}

	logger.Debug("batch finished", "steps", len(results), "failures", results.FailureCount())

	return Results{res}
}

func skipped(cmd Runnable, err error) *Result {
	return &Result{
		Label:  cmd.GetLabel(),
		Status: ResultStatusSkipped,
		Error:  err,
	}
}

// writeBanner prints a step progress message, nested steps are indented.
func writeBanner(depth int, label string) {
	indicator := topLevelIndicator
	if depth > 0 {
		indicator = nestedIndicator
	}

	indent := strings.Repeat(indentUnit, max(depth-1, 0))

	fmt.Fprintf(Stdout, "\n%s%s %s\n", indent, indicator, label) //nolint:errcheck
}
