// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cache contains the cache subcommand, which prepares language runtime caches.
package cache

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/cmdstate"
	"github.com/matt-FFFFFF/ciscripts/internal/cachedir"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	pruneRootFlag = "prune-root"
	patternFlag   = "pattern"
	moveFlag      = "move"
)

// ErrNothingToDo is returned when neither a root to prune nor a move is given.
var ErrNothingToDo = errors.New("specify at least one --prune-root or --move")

// CacheCmd prunes stale artefacts and moves runtime directories into the CI cache.
var CacheCmd = &cli.Command{
	Name:  "cache",
	Usage: "Prune stale build artefacts and move runtime directories into the cache",
	Description: `Prepare directories for the CI cache.
Files and directories under each prune root whose name matches a pattern are removed,
then each FROM:TO move renames FROM to TO, copying the tree when a rename is not possible.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:      pruneRootFlag,
			Aliases:   []string{"r"},
			Usage:     "Directory to prune, specify multiple times for several",
			TakesFile: true,
		},
		&cli.StringSliceFlag{
			Name:    patternFlag,
			Aliases: []string{"p"},
			Usage:   "Base name glob to prune, replaces the defaults. Specify multiple times for several",
		},
		&cli.StringSliceFlag{
			Name:    moveFlag,
			Aliases: []string{"m"},
			Usage:   "Move a directory, as FROM:TO. Specify multiple times for several",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	ctxlog.Debug(ctx, "Running cache command")

	opts := cachedir.Options{
		Roots:    cmd.StringSlice(pruneRootFlag),
		Patterns: cmd.StringSlice(patternFlag),
	}

	for _, s := range cmd.StringSlice(moveFlag) {
		m, err := cachedir.ParseMove(s)
		if err != nil {
			return cmdstate.ConfigError(ctx, cmd, err)
		}

		opts.Moves = append(opts.Moves, m)
	}

	if len(opts.Roots) == 0 && len(opts.Moves) == 0 {
		return cmdstate.ConfigError(ctx, cmd, ErrNothingToDo)
	}

	return cmdstate.Finish(ctx, cmd, cachedir.New(opts).Run(ctx))
}
