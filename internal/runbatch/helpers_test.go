// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
)

// syncBuffer is a bytes.Buffer that is safe for concurrent writers.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.b.String()
}

// testEnv redirects the console and scratch files of the package for one test.
type testEnv struct {
	console *syncBuffer
	fs      afero.Fs
	log     *syncBuffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		console: &syncBuffer{},
		fs:      afero.NewMemMapFs(),
		log:     &syncBuffer{},
	}

	stubs := gostub.Stub(&Stdout, io.Writer(env.console))
	stubs.Stub(&FsFactory, func() afero.Fs { return env.fs })
	stubs.Stub(&TempDirPath, func() string { return "/scratch" })
	stubs.Stub(&HeartbeatInterval, time.Duration(0))
	stubs.Stub(&Stream, false)
	t.Cleanup(stubs.Reset)

	return env
}

func (e *testEnv) context(t *testing.T) context.Context {
	t.Helper()

	original := ctxlog.LevelVar.Level()
	ctxlog.LevelVar.Set(slog.LevelDebug)
	t.Cleanup(func() { ctxlog.LevelVar.Set(original) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return ctxlog.New(ctx, ctxlog.NewJSONLogger(e.log))
}

// scratchFiles returns the names of the scratch files left on the test filesystem.
func (e *testEnv) scratchFiles(t *testing.T) []string {
	t.Helper()

	matches, err := afero.Glob(e.fs, "/scratch/"+scratchPattern)
	if err != nil {
		t.Fatalf("glob scratch files: %v", err)
	}

	return matches
}

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func shell(label, script string) *OSCommand {
	return New(label, "/bin/sh", "-c", script)
}
