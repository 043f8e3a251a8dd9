// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pyinstall builds the steps that install a Python project and its test
// dependencies on a CI machine.
package pyinstall

import (
	"cmp"
	"slices"

	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
)

const (
	batchLabel     = "Installing python project"
	defaultPython  = "python"
	defaultPip     = "pip"
	pandoc         = "pandoc"
	readmeMarkdown = "README.md"
	readmeRst      = "README.rst"
)

// Step labels, in the order the steps run.
const (
	LabelInstallPandoc  = "install pandoc"
	LabelConvertDocs    = "convert documentation"
	LabelInstallProject = "install project"
	LabelClean          = "clean build artifacts"
	LabelInstallDeps    = "install test dependencies"
)

// Options configures New.
type Options struct {
	Dir         string   // Project directory containing setup.py; the working directory if empty
	Python      string   // Python interpreter, "python" if empty
	Pip         string   // pip executable, "pip" if empty
	PipArgs     []string // Extra arguments to every pip install
	TestDeps    []string // Test dependencies; the step is omitted if empty
	ConvertDocs bool     // Convert README.md to README.rst before installing
}

// New returns the install steps for the project. Every step runs whatever the outcome
// of the ones before it.
func New(opts Options) *runbatch.SerialBatch {
	python := cmp.Or(opts.Python, defaultPython)
	pip := cmp.Or(opts.Pip, defaultPip)

	var steps []runbatch.Runnable

	if opts.ConvertDocs {
		installPandoc := runbatch.New(LabelInstallPandoc, "cabal", "install", pandoc)
		installPandoc.OnlyIfMissing = pandoc

		steps = append(steps,
			installPandoc,
			runbatch.New(LabelConvertDocs, pandoc,
				"--from=markdown", "--to=rst", "--output="+readmeRst, readmeMarkdown),
		)
	}

	steps = append(steps,
		runbatch.New(LabelInstallProject, pip, slices.Concat([]string{"install"}, opts.PipArgs, []string{"."})...),
		runbatch.New(LabelClean, python, "setup.py", "clean", "--all"),
	)

	if len(opts.TestDeps) > 0 {
		steps = append(steps,
			runbatch.New(LabelInstallDeps, pip, slices.Concat([]string{"install"}, opts.PipArgs, opts.TestDeps)...),
		)
	}

	return runbatch.NewSerialBatch(runbatch.NewBaseCommand(batchLabel, opts.Dir, nil), steps...)
}
