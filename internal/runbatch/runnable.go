// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
)

// Runnable is an interface for something that can be run as a step of a batch (either a command or a nested batch).
type Runnable interface {
	// Run executes the command or batch and returns the results.
	// It must not return before every goroutine it started has finished.
	Run(context.Context) Results
	// SetCwd sets the working directory for the command or batch if it has not been set already.
	SetCwd(string)
	// InheritEnv adds environment variables to the command or batch.
	// It should not overwrite the existing environment variables, but rather add to them.
	InheritEnv(map[string]string)
	// GetLabel returns the label or description of the command or batch.
	GetLabel() string
	// GetParent returns the parent for this command or batch.
	GetParent() Runnable
	// SetParent sets the parent for this command or batch.
	SetParent(Runnable)
	// ShouldRun reports whether the step should run at all.
	ShouldRun(ctx context.Context) ShouldRunAction
	// Policy returns how a failure of this step is accounted for.
	Policy() FailurePolicy
}
