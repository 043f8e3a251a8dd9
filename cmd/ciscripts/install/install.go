// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package install contains the install subcommand for Python projects.
package install

import (
	"context"

	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/cmdstate"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/pyinstall"
	"github.com/urfave/cli/v3"
)

const (
	dirFlag         = "dir"
	pythonFlag      = "python"
	pipFlag         = "pip"
	pipArgFlag      = "pip-arg"
	testDepFlag     = "test-dep"
	convertDocsFlag = "convert-docs"
)

// InstallCmd installs a Python project and its test dependencies.
var InstallCmd = &cli.Command{
	Name:  "install",
	Usage: "Install a Python project and its test dependencies",
	Description: `Install the Python project in the given directory.
The steps are: optionally convert README.md to README.rst with pandoc, pip install the project,
clean the setup.py build artifacts and pip install the test dependencies.
Every step runs even when an earlier one fails, the exit status is the number of failures.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      dirFlag,
			Aliases:   []string{"d"},
			Usage:     "Project directory, defaults to the working directory",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:    pythonFlag,
			Usage:   "Python interpreter to run setup.py with",
			Sources: cli.EnvVars("CISCRIPTS_PYTHON"),
		},
		&cli.StringFlag{
			Name:    pipFlag,
			Usage:   "pip executable",
			Sources: cli.EnvVars("CISCRIPTS_PIP"),
		},
		&cli.StringSliceFlag{
			Name:  pipArgFlag,
			Usage: "Extra argument for every pip install, specify multiple times for several",
		},
		&cli.StringSliceFlag{
			Name:    testDepFlag,
			Aliases: []string{"t"},
			Usage:   "Test dependency to install, specify multiple times for several",
		},
		&cli.BoolFlag{
			Name:  convertDocsFlag,
			Usage: "Convert README.md to README.rst with pandoc before installing",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	ctxlog.Debug(ctx, "Running install command")

	batch := pyinstall.New(pyinstall.Options{
		Dir:         cmd.String(dirFlag),
		Python:      cmd.String(pythonFlag),
		Pip:         cmd.String(pipFlag),
		PipArgs:     cmd.StringSlice(pipArgFlag),
		TestDeps:    cmd.StringSlice(testDepFlag),
		ConvertDocs: cmd.Bool(convertDocsFlag),
	})

	return cmdstate.Finish(ctx, cmd, batch.Run(ctx))
}
