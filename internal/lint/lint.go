// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lint builds the steps that run linters over the files of a project.
package lint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/filematch"
	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
)

const batchLabel = "Linting files"

// ErrNoLinters is returned when no linters are configured.
var ErrNoLinters = errors.New("no linters configured")

// Linter is a program that is run once for every file matching Patterns.
type Linter struct {
	Program  string   // Program to run, looked up in PATH
	Args     []string // Arguments placed before the file name
	Patterns []string // Base name patterns of the files to lint
}

// DefaultLinters are used when Options.Linters is empty.
var DefaultLinters = []Linter{
	{Program: "shellcheck", Patterns: []string{"*.sh", "*.bash"}},
	{Program: "bashlint", Patterns: []string{"*.sh", "*.bash", "*.bats"}},
}

// DefaultExcludes are build output directories that are never linted.
var DefaultExcludes = []string{".eggs", "*.egg"}

// Options configures New.
type Options struct {
	Dirs    []string // Directories to search; the working directory if empty
	Exclude []string // Patterns of files and directories to skip
	Linters []Linter
	Hidden  filematch.IncludeHidden
}

// New returns a batch with one nested batch per linter and one step per file.
// Linters with no matching files are left out, so the batch may be empty.
func New(ctx context.Context, opts Options) (*runbatch.SerialBatch, error) {
	linters := opts.Linters
	if len(linters) == 0 {
		linters = DefaultLinters
	}

	dirs := opts.Dirs
	if len(dirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}

		dirs = []string{wd}
	}

	var batches []runbatch.Runnable

	for _, l := range linters {
		if l.Program == "" {
			return nil, ErrNoLinters
		}

		var steps []runbatch.Runnable

		for _, dir := range dirs {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, err
			}

			files, err := filematch.Find(ctx, abs, filematch.Options{
				Include: l.Patterns,
				Exclude: slices.Concat(DefaultExcludes, opts.Exclude),
				Hidden:  opts.Hidden,
			})
			if err != nil {
				return nil, err
			}

			for _, f := range files {
				steps = append(steps, runbatch.New(
					relativeLabel(abs, f),
					l.Program,
					slices.Concat(l.Args, []string{f})...,
				))
			}
		}

		if len(steps) == 0 {
			ctxlog.Debug(ctx, "no files to lint", "linter", l.Program)
			continue
		}

		batches = append(batches, runbatch.NewSerialBatch(runbatch.NewBaseCommand(l.Program, "", nil), steps...))
	}

	return runbatch.NewSerialBatch(runbatch.NewBaseCommand(batchLabel, "", nil), batches...), nil
}

func relativeLabel(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return file
	}

	return rel
}
