// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	t.Setenv(NoColor, "1")
	assert.False(t, isColorCapable(os.Stdout.Fd()), "Expected color output to be disabled")

	t.Setenv(ForceColor, "1")
	assert.False(t, isColorCapable(os.Stdout.Fd()), "Expected color output to be disabled as NO_COLOR is still set")

	t.Setenv(NoColor, "")
	assert.True(t, isColorCapable(os.Stdout.Fd()), "Expected color output to be enabled as FORCE_COLOR is set")
}

func TestColorize(t *testing.T) {
	prev := Enabled()
	defer SetEnabled(prev)

	SetEnabled(true)
	assert.Equal(t, "\033[1;31mfail\033[0m", Colorize("fail", Bold, FgRed))
	assert.Equal(t, "\033[32mok", ColorizeNoReset("ok", FgGreen))
	assert.Equal(t, "\033[0m", ControlString(Reset))

	SetEnabled(false)
	assert.Equal(t, "fail", Colorize("fail", Bold, FgRed))
	assert.Equal(t, "ok", ColorizeNoReset("ok", FgGreen))
	assert.Empty(t, ControlString(Reset))
}
