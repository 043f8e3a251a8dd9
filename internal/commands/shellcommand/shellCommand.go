// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package shellcommand creates steps that run a command line through the system shell.
package shellcommand

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
)

const (
	// GOOSWindows is the string constant for Windows OS from the runtime package.
	GOOSWindows          = "windows"
	commandSwitchWindows = "/C"         // Command switch for Windows cmd.exe
	commandSwitchUnix    = "-c"         // Command switch for Unix-like shells
	winSystem32          = "System32"   // System32 is the directory where cmd.exe is located on Windows.
	cmdExe               = "cmd.exe"    // cmdExe is the name of the command interpreter executable on Windows.
	binSh                = "/bin/sh"    // Default shell for Unix-like systems.
	winSystemRootEnv     = "SystemRoot" // Environment variable for Windows system root directory.
	shellEnv             = "CISCRIPTS_SHELL"
)

// ErrEmptyCommandLine is returned when the command line is empty.
var ErrEmptyCommandLine = errors.New("command line is empty")

// New creates a runbatch.OSCommand that runs commandLine with the default shell.
// The failure report names the shell, its switch and the command line.
func New(ctx context.Context, base *runbatch.BaseCommand, commandLine string) (*runbatch.OSCommand, error) {
	if commandLine == "" {
		return nil, ErrEmptyCommandLine
	}

	if base == nil {
		base = runbatch.NewBaseCommand(commandLine, "", nil)
	}

	switchArg := commandSwitchUnix
	if runtime.GOOS == GOOSWindows {
		switchArg = commandSwitchWindows
	}

	return &runbatch.OSCommand{
		BaseCommand: base,
		Path:        defaultShell(ctx),
		Args:        []string{switchArg, commandLine},
	}, nil
}

// defaultShell selects the shell in order: CISCRIPTS_SHELL, then cmd.exe on Windows,
// then /bin/sh. SHELL is not used as login shells are often not POSIX compatible.
func defaultShell(ctx context.Context) string {
	if shell := os.Getenv(shellEnv); shell != "" {
		ctxlog.Debug(ctx, "using shell from environment", "env", shellEnv, "shell", shell)
		return shell
	}

	if runtime.GOOS == GOOSWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe)
	}

	return binSh
}
