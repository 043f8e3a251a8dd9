// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package commandinpath

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
}

func TestWhich(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX permission bits")
	}

	first := t.TempDir()
	second := t.TempDir()

	writeFile(t, filepath.Join(first, "notexec"), 0o644)
	writeFile(t, filepath.Join(second, "notexec"), 0o755)
	writeFile(t, filepath.Join(second, "tool"), 0o755)
	writeFile(t, filepath.Join(first, "tool"), 0o755)
	require.NoError(t, os.Mkdir(filepath.Join(first, "adir"), 0o755))

	t.Setenv("PATH", strings.Join([]string{first, first, second}, string(os.PathListSeparator)))

	got, err := Which("tool")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "tool"), got, "the first PATH entry wins")

	got, err = Which("notexec")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "notexec"), got, "non-executable files are skipped")

	_, err = Which("adir")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Which("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Which("")
	require.ErrorIs(t, err, ErrNotFound)

	got, err = Which(filepath.Join(second, "tool"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "tool"), got)
}

