// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import "slices"

// maxExitCode is the largest process exit status that survives truncation to a single byte.
const maxExitCode = 255

// ResultStatus is the outcome of a single step.
type ResultStatus int

const (
	// ResultStatusSuccess means the step ran and exited zero.
	ResultStatusSuccess ResultStatus = iota
	// ResultStatusError means the step could not be started or exited non-zero.
	ResultStatusError
	// ResultStatusSkipped means the step was not run.
	ResultStatusSkipped
)

// String returns the string representation of the ResultStatus.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	case ResultStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a command or batch.
type Result struct {
	Label       string       // Label of the command or batch
	ExitCode    int          // Exit code of the command
	Error       error        // Error, if any
	Output      []byte       // Combined stdout and stderr of the command
	Status      ResultStatus // Outcome of the step
	Allowed     bool         // The failure is reported but not counted
	ScratchFile string       // Name of the scratch file the output was captured to
	Children    Results      // Nested results of a batch
}

// Failed reports whether this result is a failure that counts towards the exit status.
// Batches never count themselves, only their children do.
func (r *Result) Failed() bool {
	if r == nil || len(r.Children) > 0 {
		return false
	}

	return r.Status == ResultStatusError && !r.Allowed
}

// Results is a slice of Result pointers, used to represent multiple results.
// It is the failure accumulator threaded through a run: every step contributes one leaf.
type Results []*Result

// FailureCount returns the number of counted failures in the results tree.
func (r Results) FailureCount() int {
	n := 0

	for v := range slices.Values(r) {
		if v == nil {
			continue
		}

		if v.Failed() {
			n++
		}

		n += v.Children.FailureCount()
	}

	return n
}

// HasError reports whether any counted failure is present.
func (r Results) HasError() bool {
	return r.FailureCount() > 0
}

// ExitCode converts the failure count into a process exit status.
// Counts above 255 are clamped so that they can never be mistaken for success.
func (r Results) ExitCode() int {
	return min(r.FailureCount(), maxExitCode)
}

// Leaves returns the results of every individual step, in execution order.
func (r Results) Leaves() Results {
	out := make(Results, 0, len(r))

	for v := range slices.Values(r) {
		if v == nil {
			continue
		}

		if len(v.Children) == 0 {
			out = append(out, v)
			continue
		}

		out = append(out, v.Children.Leaves()...)
	}

	return out
}

