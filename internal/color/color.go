// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

const (
	sbPadding = 16 // padding for the strings.Builder
)

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"
	reset      = "\033[0m"
	prefix     = "\033["
	suffix     = "m"
)

// Code represents an ANSI control code for text formatting.
type Code int

// Control codes for text formatting.
const (
	Reset Code = iota
	Bold
	Faint
	Italic
	Underline
)

// Foreground text colors.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Foreground Hi-Intensity text colors.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

var enabled atomic.Bool

func init() {
	enabled.Store(isColorCapable(os.Stdout.Fd()))
}

// Enabled reports whether color output is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled overrides the detected setting, e.g. for a --no-color flag.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// ControlString generates a string with ANSI control codes for text formatting.
// It returns an empty string when color is disabled.
func ControlString(c ...Code) string {
	if !Enabled() {
		return ""
	}

	sb := strings.Builder{}
	sb.Grow(len(prefix) + len(suffix) + sbPadding)
	writeCodes(&sb, c)

	return sb.String()
}

// Colorize returns str wrapped in the given codes, followed by the reset code.
func Colorize(str string, colorCodes ...Code) string {
	return colorize(str, true, colorCodes)
}

// ColorizeNoReset returns str prefixed with the given codes and without a trailing reset.
func ColorizeNoReset(str string, colorCodes ...Code) string {
	return colorize(str, false, colorCodes)
}

func colorize(str string, withReset bool, codes []Code) string {
	if !Enabled() {
		return str
	}

	sb := strings.Builder{}
	sb.Grow(len(str) + len(prefix) + len(suffix) + len(reset) + sbPadding)
	writeCodes(&sb, codes)
	sb.WriteString(str)

	if withReset {
		sb.WriteString(reset)
	}

	return sb.String()
}

func writeCodes(sb *strings.Builder, codes []Code) {
	sb.WriteString(prefix)

	for i, code := range codes {
		if i > 0 {
			sb.WriteString(";")
		}

		sb.WriteString(strconv.Itoa(int(code)))
	}

	sb.WriteString(suffix)
}

func isColorCapable(fd uintptr) bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(fd))
}
