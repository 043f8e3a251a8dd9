// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/ciscripts/internal/color"
)

const (
	reportPrefix = "!!! "
	argPrefix    = "!!!         "
)

// RemediationNotice is printed after every failure report.
var RemediationNotice = []string{
	"!!! The build cache may be stale.",
	"!!! Try clearing the CI cache for this build and running it again.",
}

// failureHeader names what failed in a failure report.
type failureHeader struct {
	kind string   // "Process" or "Step"
	argv []string // argv[0] is the program or step name
}

// writeFailure writes the failure report for res: the header naming the program
// and its arguments, the exit status, the captured output and the remediation notice.
func writeFailure(w io.Writer, header failureHeader, res *Result, dumpOutput bool) error {
	var buf bytes.Buffer

	name := ""
	if len(header.argv) > 0 {
		name = header.argv[0]
	}

	fmt.Fprintf(&buf, "%s%s %s\n", reportPrefix, header.kind, name)

	if len(header.argv) > 1 {
		for arg := range slices.Values(header.argv[1:]) {
			fmt.Fprintf(&buf, "%s%s\n", argPrefix, arg)
		}
	}

	fmt.Fprintf(&buf, "%sfailed with %d\n", reportPrefix, res.ExitCode)

	if res.Error != nil && !errors.Is(res.Error, ErrCouldNotStartProcess) {
		fmt.Fprintf(&buf, "%serror: %s\n", reportPrefix, res.Error)
	}

	if dumpOutput && len(res.Output) > 0 {
		buf.Write(res.Output)

		if !bytes.HasSuffix(res.Output, []byte("\n")) {
			buf.WriteByte('\n')
		}
	}

	for line := range slices.Values(RemediationNotice) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	_, err := w.Write(buf.Bytes())

	return err
}

// Write writes the summary of r to w.
func (r Results) Write(w io.Writer) error {
	return WriteSummary(w, r)
}

// WriteSummary writes one status line per step in the results tree.
func WriteSummary(w io.Writer, results Results) error {
	for r := range slices.Values(results) {
		if err := writeResultWithIndent(w, r, ""); err != nil {
			return err
		}
	}

	return nil
}

func writeResultWithIndent(w io.Writer, r *Result, indent string) error {
	var statusStr, labelPrefix string

	switch r.Status {
	case ResultStatusSkipped:
		statusStr = color.Colorize("~", color.FgYellow)
		labelPrefix = color.ControlString(color.Bold, color.FgYellow)
	case ResultStatusError:
		if r.Allowed {
			statusStr = color.Colorize("!", color.FgYellow)
			labelPrefix = color.ControlString(color.Bold, color.FgYellow)

			break
		}

		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	case ResultStatusSuccess:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	default:
		statusStr = color.Colorize("?", color.FgWhite)
	}

	label := r.Label
	if label == "" {
		label = "[unnamed]"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s%s %s%s%s", indent, statusStr, labelPrefix, label, color.ControlString(color.Reset))

	if r.ExitCode != 0 {
		fmt.Fprintf(&sb, " (exit code: %d)", r.ExitCode)
	}

	if r.Allowed && r.Status == ResultStatusError {
		sb.WriteString(" (failure allowed)")
	}

	sb.WriteByte('\n')

	if r.Error != nil && !errors.Is(r.Error, ErrResultChildrenHasError) {
		errColor := color.FgRed
		if r.Status == ResultStatusSkipped || r.Allowed {
			// allowed failures and skips are not counted
			errColor = color.FgYellow
		}

		fmt.Fprintf(&sb, "%s  %s %s%s\n",
			indent,
			color.ColorizeNoReset("➜ Error:", errColor),
			r.Error.Error(),
			color.ControlString(color.Reset),
		)
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	for child := range slices.Values(r.Children) {
		if err := writeResultWithIndent(w, child, indent+"  "); err != nil {
			return err
		}
	}

	return nil
}
