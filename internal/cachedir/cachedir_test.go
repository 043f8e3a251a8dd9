// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cachedir

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noRenameFs fails every rename, like a move across devices.
type noRenameFs struct {
	afero.Fs
}

func (noRenameFs) Rename(string, string) error {
	return &os.LinkError{Op: "rename", Err: errors.New("invalid cross-device link")}
}

func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()

	for name, content := range files {
		name = filepath.FromSlash(name)
		require.NoError(t, fsys.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
}

func exists(t *testing.T, fsys afero.Fs, name string) bool {
	t.Helper()

	ok, err := afero.Exists(fsys, filepath.FromSlash(name))
	require.NoError(t, err)

	return ok
}

func TestPrune(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"/cache/python/lib/mod.py":                       "",
		"/cache/python/lib/mod.pyc":                      "",
		"/cache/python/lib/__pycache__/mod.cpython":      "",
		"/cache/haskell/lib/libHSbase_debug-ghc7.8.4.so": "",
		"/cache/haskell/lib/libHSbase-ghc7.8.4.so":       "",
		"/cache/build-reports.log":                       "",
	})

	var out bytes.Buffer

	n, err := Prune(context.Background(), fsys, "/cache", DefaultPrunePatterns, &out)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.True(t, exists(t, fsys, "/cache/python/lib/mod.py"))
	assert.True(t, exists(t, fsys, "/cache/haskell/lib/libHSbase-ghc7.8.4.so"))
	assert.False(t, exists(t, fsys, "/cache/python/lib/mod.pyc"))
	assert.False(t, exists(t, fsys, "/cache/python/lib/__pycache__"))
	assert.False(t, exists(t, fsys, "/cache/haskell/lib/libHSbase_debug-ghc7.8.4.so"))
	assert.False(t, exists(t, fsys, "/cache/build-reports.log"))
	assert.Contains(t, out.String(), "pruned 4 entries from /cache")
}

func TestPrune_MissingRoot(t *testing.T) {
	var out bytes.Buffer

	n, err := Prune(context.Background(), afero.NewMemMapFs(), "/nowhere", DefaultPrunePatterns, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, out.String(), "nothing to prune")
}

func TestMoveTree_Rename(t *testing.T) {
	fsys := afero.NewOsFs()
	dir := t.TempDir()
	from := filepath.Join(dir, "home", ".stack")
	to := filepath.Join(dir, "cache", "stack")

	writeFiles(t, fsys, map[string]string{
		filepath.Join(from, "config.yaml"): "resolver: lts",
		filepath.Join(to, "stale"):         "old",
	})

	var out bytes.Buffer

	require.NoError(t, MoveTree(context.Background(), fsys, Move{From: from, To: to}, &out))

	assert.True(t, exists(t, fsys, filepath.Join(to, "config.yaml")))
	assert.False(t, exists(t, fsys, filepath.Join(to, "stale")), "the destination is replaced")
	assert.False(t, exists(t, fsys, from))
	assert.Contains(t, out.String(), "renamed")
}

func TestMoveTree_CopyFallback(t *testing.T) {
	fsys := noRenameFs{Fs: afero.NewMemMapFs()}
	writeFiles(t, fsys, map[string]string{
		"/opt/python/bin/python": "#!",
		"/opt/python/lib/os.py":  "import sys",
	})

	var out bytes.Buffer

	require.NoError(t, MoveTree(context.Background(), fsys, Move{From: "/opt/python", To: "/cache/deep/python"}, &out))

	data, err := afero.ReadFile(fsys, filepath.FromSlash("/cache/deep/python/lib/os.py"))
	require.NoError(t, err)
	assert.Equal(t, "import sys", string(data))
	assert.True(t, exists(t, fsys, "/cache/deep/python/bin/python"))
	assert.False(t, exists(t, fsys, "/opt/python"))
	assert.Contains(t, out.String(), "rename failed, copying instead")
	assert.Contains(t, out.String(), "copied /opt/python to /cache/deep/python")
}

func TestMoveTree_SourceMissing(t *testing.T) {
	err := MoveTree(context.Background(), afero.NewMemMapFs(), Move{From: "/missing", To: "/cache/x"}, io.Discard)
	require.ErrorIs(t, err, ErrSourceMissing)
}

func TestMoveTree_SameDirectoryIsKept(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"/rt/a.txt": "keep"})

	var out bytes.Buffer

	require.NoError(t, MoveTree(context.Background(), fsys, Move{From: "/rt", To: "/rt/./"}, &out))

	assert.True(t, exists(t, fsys, "/rt/a.txt"))
	assert.Contains(t, out.String(), "already in place")
}

func TestMoveTree_NestedIsRejected(t *testing.T) {
	tests := []struct {
		name string
		move Move
	}{
		{name: "destination inside source", move: Move{From: "/rt", To: "/rt/cache"}},
		{name: "source inside destination", move: Move{From: "/rt/cache", To: "/rt"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fsys := noRenameFs{Fs: afero.NewMemMapFs()}
			writeFiles(t, fsys, map[string]string{"/rt/cache/a.txt": "keep"})

			err := MoveTree(context.Background(), fsys, tc.move, io.Discard)

			require.ErrorIs(t, err, ErrNestedMove)
			assert.True(t, exists(t, fsys, "/rt/cache/a.txt"))
		})
	}
}

func TestIsWithin(t *testing.T) {
	assert.True(t, isWithin("/a/b", "/a"))
	assert.False(t, isWithin("/a", "/a"))
	assert.False(t, isWithin("/ab", "/a"))
	assert.False(t, isWithin("/a", "/a/b"))
	assert.True(t, isWithin("/a/..b", "/a"))
}

func TestParseMove(t *testing.T) {
	m, err := ParseMove("/home/ci/.cabal:/cache/cabal")
	require.NoError(t, err)
	assert.Equal(t, Move{From: "/home/ci/.cabal", To: "/cache/cabal"}, m)

	for _, bad := range []string{"", "nocolon", ":/to", "/from:"} {
		_, err := ParseMove(bad)
		require.ErrorIs(t, err, ErrInvalidMove, bad)
	}
}

func TestNew(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"/cache/a.pyc":   "",
		"/src/tool":      "binary",
		"/other/b.pyc":   "",
		"/other/keep.py": "",
	})

	var console bytes.Buffer

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fsys })
	stubs.Stub(&runbatch.Stdout, io.Writer(&console))
	stubs.Stub(&runbatch.FsFactory, func() afero.Fs { return afero.NewMemMapFs() })

	defer stubs.Reset()

	batch := New(Options{
		Roots: []string{"/cache", "/other"},
		Moves: []Move{{From: "/src/tool", To: "/cache/tool"}, {From: "/missing", To: "/cache/missing"}},
	})
	require.Len(t, batch.Commands, 4)
	assert.Equal(t, "prune /cache", batch.Commands[0].GetLabel())
	assert.Equal(t, "move /src/tool to /cache/tool", batch.Commands[2].GetLabel())

	results := batch.Run(context.Background())

	assert.Equal(t, 1, results.ExitCode(), "only the missing move fails")
	assert.False(t, exists(t, fsys, "/cache/a.pyc"))
	assert.False(t, exists(t, fsys, "/other/b.pyc"))
	assert.True(t, exists(t, fsys, "/other/keep.py"))
	assert.True(t, exists(t, fsys, "/cache/tool"))
	assert.Contains(t, console.String(), "!!! Step move /missing to /cache/missing\n")
}
