// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package filematch finds the files a step should be run on.
package filematch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/spf13/afero"
)

// IncludeHidden is a type that indicates whether to include hidden files and directories.
type IncludeHidden bool

var (
	// HiddenInclude includes hidden files and directories.
	HiddenInclude = IncludeHidden(true)
	// HiddenExclude skips hidden files and directories.
	HiddenExclude = IncludeHidden(false)
)

// DefaultExcludes are always excluded.
var DefaultExcludes = []string{".git"}

// FsFactory returns the filesystem that is searched.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Options controls which files Find returns.
type Options struct {
	// Include are patterns matched against the base name of each file.
	Include []string
	// Exclude are patterns for files and directories to skip. A pattern without a path
	// separator is matched against every path element, otherwise it is matched against
	// the path relative to the root and the path as walked.
	Exclude []string
	// Hidden controls whether names starting with a dot are searched.
	Hidden IncludeHidden
}

// Find walks root and returns the files matching opts, in lexical order.
func Find(ctx context.Context, root string, opts Options) ([]string, error) {
	for _, p := range slices.Concat(opts.Include, opts.Exclude) {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}

	excludes := slices.Concat(DefaultExcludes, opts.Exclude)

	var files []string

	err := afero.Walk(FsFactory(), root, func(path string, info fs.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}

		skip := excluded(excludes, path, rel) ||
			(!bool(opts.Hidden) && strings.HasPrefix(info.Name(), "."))

		switch {
		case skip && info.IsDir():
			return filepath.SkipDir
		case skip, info.IsDir():
			return nil
		}

		if matchAny(opts.Include, info.Name()) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}

	ctxlog.Debug(ctx, "files found", "root", root, "count", len(files))

	return files, nil
}

func excluded(patterns []string, path, rel string) bool {
	elems := strings.Split(filepath.ToSlash(rel), "/")

	for _, p := range patterns {
		if !strings.ContainsAny(p, `/\`) {
			if matchAny([]string{p}, elems...) {
				return true
			}

			continue
		}

		if matchAny([]string{filepath.ToSlash(p)}, filepath.ToSlash(rel), filepath.ToSlash(path)) {
			return true
		}
	}

	return false
}

// matchAny reports whether any name matches any pattern. Patterns are validated by Find.
func matchAny(patterns []string, names ...string) bool {
	for _, p := range patterns {
		for _, n := range names {
			if ok, _ := filepath.Match(p, n); ok {
				return true
			}
		}
	}

	return false
}
