// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package commandinpath resolves executables on PATH.
package commandinpath

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotFound is returned when the executable is not found in any PATH directory.
var ErrNotFound = errors.New("executable not found in PATH")

// Which returns the full path of the first executable called name found in PATH.
// Directories are searched once each, in order. On Windows each extension in PATHEXT
// is also tried. A name containing a path separator is checked as given.
func Which(name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}

	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		if isExecutable(name) {
			return name, nil
		}

		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	seen := make(map[string]struct{})

	for dir := range strings.SplitSeq(os.Getenv("PATH"), string(os.PathListSeparator)) {
		if dir == "" {
			dir = "."
		}

		if _, ok := seen[dir]; ok {
			continue
		}

		seen[dir] = struct{}{}

		for ext := range pathExts() {
			candidate := filepath.Join(dir, name+ext)
			if isExecutable(candidate) {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func pathExts() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield("") {
			return
		}

		if runtime.GOOS != "windows" {
			return
		}

		for ext := range strings.SplitSeq(os.Getenv("PATHEXT"), string(os.PathListSeparator)) {
			if ext != "" && !yield(strings.ToLower(ext)) {
				return
			}
		}
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	if runtime.GOOS == "windows" {
		return true
	}

	return info.Mode()&0o111 != 0
}
