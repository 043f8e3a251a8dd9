// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cachedir prepares language runtime directories to be saved in the CI cache.
// Stale build artefacts are pruned and runtime directories are moved into the cache tree.
package cachedir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
	"github.com/spf13/afero"
)

const (
	// sevenFiveFive is the file mode for directories created in the cache.
	sevenFiveFive = 0o755
	batchLabel    = "Preparing cache"
)

var (
	// ErrFileCopy is returned when a file copy operation fails.
	ErrFileCopy = errors.New("file copy error")
	// ErrFilePath is returned when a file path operation fails.
	ErrFilePath = errors.New("file path error")
	// ErrInvalidMove is returned when a move is not of the form FROM:TO.
	ErrInvalidMove = errors.New("move must be of the form FROM:TO")
	// ErrSourceMissing is returned when the source of a move does not exist.
	ErrSourceMissing = errors.New("move source does not exist")
	// ErrNestedMove is returned when one side of a move contains the other.
	ErrNestedMove = errors.New("move source and destination must not contain each other")
)

// DefaultPrunePatterns match byte code, build logs and profiling libraries that are
// rebuilt anyway and only bloat the cache.
var DefaultPrunePatterns = []string{
	"*.pyc",
	"*.pyo",
	"__pycache__",
	"build-reports.log",
	"*_debug-ghc*.so",
	"*_l-ghc*.so",
}

// FsFactory returns the filesystem the cache lives on.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Move is a directory to move into the cache.
type Move struct {
	From string
	To   string
}

// ParseMove parses FROM:TO.
func ParseMove(s string) (Move, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok || from == "" || to == "" {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}

	return Move{From: from, To: to}, nil
}

// Options configures New.
type Options struct {
	Roots    []string // Directories to prune
	Patterns []string // Prune patterns; DefaultPrunePatterns if empty
	Moves    []Move   // Moves, run after pruning
}

// New returns a batch with one prune step per root followed by one step per move.
func New(opts Options) *runbatch.SerialBatch {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPrunePatterns
	}

	steps := make([]runbatch.Runnable, 0, len(opts.Roots)+len(opts.Moves))

	for _, root := range opts.Roots {
		steps = append(steps, &runbatch.FunctionCommand{
			BaseCommand: runbatch.NewBaseCommand("prune "+root, "", nil),
			Func: func(ctx context.Context, _ string, w io.Writer) error {
				_, err := Prune(ctx, FsFactory(), root, patterns, w)
				return err
			},
		})
	}

	for _, m := range opts.Moves {
		steps = append(steps, &runbatch.FunctionCommand{
			BaseCommand: runbatch.NewBaseCommand(fmt.Sprintf("move %s to %s", m.From, m.To), "", nil),
			Func: func(ctx context.Context, _ string, w io.Writer) error {
				return MoveTree(ctx, FsFactory(), m, w)
			},
		})
	}

	return runbatch.NewSerialBatch(runbatch.NewBaseCommand(batchLabel, "", nil), steps...)
}

// Prune removes every file and directory under root whose base name matches one of
// patterns, and returns how many were removed. A missing root has nothing to prune.
func Prune(ctx context.Context, fsys afero.Fs, root string, patterns []string, w io.Writer) (int, error) {
	if _, err := fsys.Stat(root); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(w, "%s does not exist, nothing to prune\n", root) //nolint:errcheck
		return 0, nil
	}

	var matches []string

	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return err
		}

		if path == root || !matchAny(patterns, info.Name()) {
			return nil
		}

		matches = append(matches, path)

		if info.IsDir() {
			return filepath.SkipDir
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to search %s: %w", root, err)
	}

	for _, m := range matches {
		if err := fsys.RemoveAll(m); err != nil {
			return 0, fmt.Errorf("failed to remove %s: %w", m, err)
		}

		fmt.Fprintf(w, "removed %s\n", m) //nolint:errcheck
	}

	fmt.Fprintf(w, "pruned %d entries from %s\n", len(matches), root) //nolint:errcheck

	return len(matches), nil
}

// MoveTree moves m.From to m.To, replacing anything already at m.To.
// Moving a directory onto itself does nothing, and a move where one side contains the other
// is rejected before anything is removed.
// If the rename fails, for example across devices, the tree is copied and the source removed.
func MoveTree(ctx context.Context, fsys afero.Fs, m Move, w io.Writer) error {
	from, to := filepath.Clean(m.From), filepath.Clean(m.To)

	switch {
	case from == to:
		fmt.Fprintf(w, "%s is already in place\n", from) //nolint:errcheck
		return nil
	case isWithin(to, from):
		return fmt.Errorf("%w: %s is inside %s", ErrNestedMove, to, from)
	case isWithin(from, to):
		return fmt.Errorf("%w: %s is inside %s", ErrNestedMove, from, to)
	}

	m = Move{From: from, To: to}

	if _, err := fsys.Stat(m.From); err != nil {
		return errors.Join(ErrSourceMissing, err)
	}

	if err := fsys.RemoveAll(m.To); err != nil {
		return fmt.Errorf("failed to clear %s: %w", m.To, err)
	}

	if err := fsys.MkdirAll(filepath.Dir(m.To), sevenFiveFive); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(m.To), err)
	}

	err := fsys.Rename(m.From, m.To)
	if err == nil {
		fmt.Fprintf(w, "renamed %s to %s\n", m.From, m.To) //nolint:errcheck
		return nil
	}

	fmt.Fprintf(w, "rename failed, copying instead: %s\n", err) //nolint:errcheck

	if err := copyTree(ctx, fsys, m.From, m.To); err != nil {
		return err
	}

	if err := fsys.RemoveAll(m.From); err != nil {
		return fmt.Errorf("failed to remove %s after copy: %w", m.From, err)
	}

	fmt.Fprintf(w, "copied %s to %s\n", m.From, m.To) //nolint:errcheck

	return nil
}

func copyTree(ctx context.Context, fsys afero.Fs, src, dst string) error {
	return afero.Walk(fsys, src, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Join(ErrFilePath, err)
		}

		dstPath := filepath.Clean(filepath.Join(dst, relPath))

		if info.IsDir() {
			return fsys.MkdirAll(dstPath, info.Mode().Perm()|0o700)
		}

		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return errors.Join(ErrFileCopy, err)
		}

		if err := afero.WriteFile(fsys, dstPath, data, info.Mode().Perm()); err != nil {
			return errors.Join(ErrFileCopy, err)
		}

		return nil
	})
}

// isWithin reports whether path is below dir. Both must be clean.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}

	return false
}
