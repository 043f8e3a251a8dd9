// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lint contains the lint subcommand.
package lint

import (
	"context"

	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/cmdstate"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/filematch"
	linter "github.com/matt-FFFFFF/ciscripts/internal/lint"
	"github.com/urfave/cli/v3"
)

const (
	dirFlag     = "dir"
	excludeFlag = "exclude"
	hiddenFlag  = "hidden"
)

// LintCmd runs shellcheck and bashlint over the shell and bats files in a tree.
var LintCmd = &cli.Command{
	Name:  "lint",
	Usage: "Lint shell and bats files",
	Description: `Find shell and bats files and run each linter over each file.
shellcheck checks *.sh and *.bash files, bashlint checks *.sh, *.bash and *.bats files.
Every file is linted even when an earlier one fails, the exit status is the number of failures.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:      dirFlag,
			Aliases:   []string{"d"},
			Usage:     "Directory to search, specify multiple times to search several. Defaults to the working directory",
			TakesFile: true,
		},
		&cli.StringSliceFlag{
			Name:    excludeFlag,
			Aliases: []string{"x"},
			Usage:   "Glob of files or directories to skip, specify multiple times for several",
		},
		&cli.BoolFlag{
			Name:  hiddenFlag,
			Usage: "Include hidden files and directories",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	ctxlog.Debug(ctx, "Running lint command")

	opts := linter.Options{
		Dirs:    cmd.StringSlice(dirFlag),
		Exclude: cmd.StringSlice(excludeFlag),
	}

	if cmd.Bool(hiddenFlag) {
		opts.Hidden = filematch.HiddenInclude
	}

	batch, err := linter.New(ctx, opts)
	if err != nil {
		return cmdstate.ConfigError(ctx, cmd, err)
	}

	return cmdstate.Finish(ctx, cmd, batch.Run(ctx))
}
