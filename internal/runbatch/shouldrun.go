// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

// ShouldRunAction defines the action to take based on the result of a command's pre-check.
type ShouldRunAction int

const (
	// ShouldRunActionRun means run the command.
	ShouldRunActionRun ShouldRunAction = iota
	// ShouldRunActionSkip means skip the command, it is not counted as a failure.
	ShouldRunActionSkip
)

// FailurePolicy describes how a failed step affects the batch it belongs to.
type FailurePolicy struct {
	// AllowFailure reports the failure but does not count it.
	AllowFailure bool
	// InstantFail stops the batch when this step fails. Remaining steps are skipped.
	InstantFail bool
}
