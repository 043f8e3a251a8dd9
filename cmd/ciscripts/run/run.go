// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the run subcommand, which runs the steps described in YAML, HCL or TOML files.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/ciscripts/cmd/ciscripts/cmdstate"
	"github.com/matt-FFFFFF/ciscripts/internal/config"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const fileFlag = "file"

var (
	// ErrGetConfigFile is returned when the file cannot be read.
	ErrGetConfigFile = errors.New("failed to get steps file")
	// ErrNoFiles is returned when no steps file is given.
	ErrNoFiles = errors.New("specify at least one steps file with --file or as an argument")
)

// RunCmd is the command that runs the steps defined in one or more steps files.
var RunCmd = &cli.Command{
	Name:      "run",
	Usage:     "Run the steps defined in YAML, HCL or TOML steps files",
	ArgsUsage: "[file...]",
	Description: `Run the steps defined in one or more steps files.
Files ending in .hcl are read as HCL, .toml as TOML and anything else as YAML.
Every step runs even when an earlier one fails, the exit status is the number of failed steps.

Steps file URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    fileFlag,
			Aliases: []string{"f"},
			Usage: "Specify the URL of a steps file to run. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources. " +
				"Specify multiple times to run multiple files.",
			OnlyOnce: false,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	urls := append(cmd.StringSlice(fileFlag), cmd.Args().Slice()...)
	if len(urls) == 0 {
		return cmdstate.ConfigError(ctx, cmd, ErrNoFiles)
	}

	batches := make([]runbatch.Runnable, 0, len(urls))

	for i, u := range urls {
		if u == "" {
			return cmdstate.ConfigError(ctx, cmd, fmt.Errorf("%w: the URL at index %d is empty", ErrGetConfigFile, i))
		}

		def, err := loadDefinition(ctx, u)
		if err != nil {
			return cmdstate.ConfigError(ctx, cmd, err)
		}

		rb, err := def.Build(ctx)
		if err != nil {
			return cmdstate.ConfigError(ctx, cmd, fmt.Errorf("%s: %w", u, err))
		}

		batches = append(batches, rb)
	}

	var top runbatch.Runnable = batches[0]
	if len(batches) > 1 {
		top = runbatch.NewSerialBatch(nil, batches...)
	}

	return cmdstate.Finish(ctx, cmd, top.Run(ctx))
}

// loadDefinition reads a local steps file directly and fetches anything else with go-getter.
func loadDefinition(ctx context.Context, u string) (*config.Definition, error) {
	if fi, err := config.FsFactory().Stat(u); err == nil && !fi.IsDir() {
		return config.Load(ctx, u)
	}

	name, data, err := getURL(ctx, u)
	if err != nil {
		return nil, err
	}

	def, err := config.Parse(name, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u, err)
	}

	if def.Name == "" {
		def.Name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	return def, nil
}

// getURL retrieves the content from the specified URL using Hashicorp's go-getter.
// It returns the base name of the fetched file alongside its content and removes
// the temporary download directory before returning.
func getURL(ctx context.Context, url string) (string, []byte, error) {
	if url == "" {
		return "", nil, ErrGetConfigFile
	}

	tmpDir, err := os.MkdirTemp("", "ciscripts-getter-*")
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string
	// Remote sources are fetched as a directory and the file is read from it.
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return "", nil, errors.Join(ErrGetConfigFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return "", nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetConfigFile, url)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(url)
		fileName = filepath.Base(url)
	}

	ctxlog.Debug(ctx, "fetching steps file", "src", req.Src, "file", fileName)

	res, err := client.Get(ctx, req)
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	return fileName, data, nil
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // scheme, host and path
)

// splitFileNameFromGetterURL splits a go-getter URL into the directory URL and the file name.
// Any query string is kept on the returned URL.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]

	if path, query, found := strings.Cut(last, goGetterRefSeparator); found {
		ref = query
		last = path
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)

	if dir := filepath.Dir(last); dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = dir
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
