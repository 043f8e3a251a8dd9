// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package filematch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memTree(t *testing.T, files ...string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("#!/bin/sh\n"), 0o644))
	}

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs })
	t.Cleanup(stubs.Reset)
}

func TestFind(t *testing.T) {
	memTree(t,
		"/repo/build.sh",
		"/repo/README.md",
		"/repo/scripts/deploy.bash",
		"/repo/scripts/test.bats",
		"/repo/.git/hooks/pre-commit.sh",
		"/repo/.ci/setup.sh",
		"/repo/vendor/lib/vendored.sh",
	)

	tests := []struct {
		name     string
		opts     Options
		expected []string
	}{
		{
			name: "include by extension",
			opts: Options{Include: []string{"*.sh", "*.bash"}, Hidden: HiddenInclude},
			expected: []string{
				"/repo/.ci/setup.sh",
				"/repo/build.sh",
				"/repo/scripts/deploy.bash",
				"/repo/vendor/lib/vendored.sh",
			},
		},
		{
			name:     "hidden excluded",
			opts:     Options{Include: []string{"*.sh"}, Hidden: HiddenExclude},
			expected: []string{"/repo/build.sh", "/repo/vendor/lib/vendored.sh"},
		},
		{
			name: "exclude directory element",
			opts: Options{Include: []string{"*.sh", "*.bats"}, Exclude: []string{"vendor"}},
			expected: []string{
				"/repo/build.sh",
				"/repo/scripts/test.bats",
			},
		},
		{
			name:     "exclude relative path",
			opts:     Options{Include: []string{"*"}, Exclude: []string{"scripts/*", "*.md"}},
			expected: []string{"/repo/build.sh", "/repo/vendor/lib/vendored.sh"},
		},
		{
			name:     "exclude absolute path",
			opts:     Options{Include: []string{"*.sh"}, Exclude: []string{"/repo/vendor/*/*"}},
			expected: []string{"/repo/build.sh"},
		},
		{
			name: "no match",
			opts: Options{Include: []string{"*.py"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := Find(context.Background(), "/repo", tt.opts)
			require.NoError(t, err)

			for i := range tt.expected {
				tt.expected[i] = filepath.FromSlash(tt.expected[i])
			}

			assert.Equal(t, tt.expected, files)
		})
	}
}

func TestFind_GitAlwaysExcluded(t *testing.T) {
	memTree(t, "/repo/.git/hooks/pre-commit.sh")

	files, err := Find(context.Background(), "/repo", Options{Include: []string{"*.sh"}, Hidden: HiddenInclude})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFind_InvalidPattern(t *testing.T) {
	memTree(t, "/repo/a.sh")

	_, err := Find(context.Background(), "/repo", Options{Include: []string{"[a-"}})
	require.ErrorIs(t, err, filepath.ErrBadPattern)
}

func TestFind_MissingRoot(t *testing.T) {
	memTree(t)

	_, err := Find(context.Background(), "/nowhere", Options{Include: []string{"*"}})
	require.Error(t, err)
}

func TestFind_Cancelled(t *testing.T) {
	memTree(t, "/repo/a.sh")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Find(ctx, "/repo", Options{Include: []string{"*.sh"}})
	require.ErrorIs(t, err, context.Canceled)
}

