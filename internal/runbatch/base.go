// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"maps"
	"os/exec"
	"path/filepath"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
)

// LookPath finds an executable in PATH. It is a variable so tests can replace it.
var LookPath = exec.LookPath

// BaseCommand is a struct that implements the common parts of the Runnable interface.
// It should be embedded in other command types to provide common functionality.
type BaseCommand struct {
	Label         string            // Optional label for the command
	Cwd           string            // The working directory for the command, empty inherits the process cwd
	Env           map[string]string // Environment variables added to the inherited environment
	AllowFailure  bool              // Report a failure but do not count it
	InstantFail   bool              // Stop the enclosing batch when this command fails
	OnlyIfMissing string            // Skip the command if this executable is already in PATH
	OnlyIfNewer   string            // Skip the command unless this file exists and is newer than NewerThan
	NewerThan     string            // Reference file for OnlyIfNewer, a missing reference always runs
	parent        Runnable          // The parent command or batch, if any
}

// NewBaseCommand creates a new BaseCommand with the specified parameters.
func NewBaseCommand(label, cwd string, env map[string]string) *BaseCommand {
	if env == nil {
		env = make(map[string]string)
	}

	return &BaseCommand{
		Label: label,
		Cwd:   cwd,
		Env:   env,
	}
}

// GetLabel returns the label of the command.
func (c *BaseCommand) GetLabel() string {
	if c.Label == "" {
		return "Command"
	}

	return c.Label
}

// GetParent returns the parent for this command or batch.
func (c *BaseCommand) GetParent() Runnable {
	return c.parent
}

// SetParent sets the parent for this command or batch.
func (c *BaseCommand) SetParent(parent Runnable) {
	c.parent = parent
}

// SetCwd sets the working directory unless one is already set.
func (c *BaseCommand) SetCwd(cwd string) {
	if cwd == "" || c.Cwd != "" {
		return
	}

	c.Cwd = cwd
}

// InheritEnv sets additional environment variables for the command.
// Variables already set on the command win.
func (c *BaseCommand) InheritEnv(env map[string]string) {
	if len(c.Env) == 0 {
		c.Env = maps.Clone(env)
		return
	}

	for k, v := range maps.All(env) {
		if _, ok := c.Env[k]; !ok {
			c.Env[k] = v
		}
	}
}

// ShouldRun skips the command when OnlyIfMissing names an executable that is already available,
// or when OnlyIfNewer names a file that is missing or not newer than NewerThan.
func (c *BaseCommand) ShouldRun(ctx context.Context) ShouldRunAction {
	if c.OnlyIfMissing != "" {
		if p, err := LookPath(c.OnlyIfMissing); err == nil {
			ctxlog.Debug(ctx, "executable already available, skipping", "label", c.Label, "path", p)
			return ShouldRunActionSkip
		}
	}

	if c.OnlyIfNewer != "" && !c.isNewer(ctx) {
		ctxlog.Debug(ctx, "file not changed, skipping", "label", c.Label, "file", c.OnlyIfNewer, "reference", c.NewerThan)
		return ShouldRunActionSkip
	}

	return ShouldRunActionRun
}

func (c *BaseCommand) isNewer(ctx context.Context) bool {
	fs := FsFactory()

	fi, err := fs.Stat(c.resolve(c.OnlyIfNewer))
	if err != nil {
		ctxlog.Debug(ctx, "file not found", "file", c.OnlyIfNewer, "error", err)
		return false
	}

	if c.NewerThan == "" {
		return true
	}

	ref, err := fs.Stat(c.resolve(c.NewerThan))
	if err != nil {
		return true
	}

	return fi.ModTime().After(ref.ModTime())
}

// resolve makes a relative path relative to the working directory of the command.
func (c *BaseCommand) resolve(path string) string {
	if c.Cwd == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(c.Cwd, path)
}

// Policy returns the failure policy of the command.
func (c *BaseCommand) Policy() FailurePolicy {
	return FailurePolicy{
		AllowFailure: c.AllowFailure,
		InstantFail:  c.InstantFail,
	}
}
