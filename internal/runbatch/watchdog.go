// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	scratchPattern        = "ciscripts-*.log"
	scratchDirPermissions = 0o755
)

var (
	// HeartbeatInterval is how often the heartbeat mark is written while a step runs.
	// A value of zero or less disables the heartbeat.
	HeartbeatInterval = 60 * time.Second
	// HeartbeatMark is written to the console on every heartbeat.
	HeartbeatMark = "."
	// Stdout receives heartbeats, streamed output and failure reports.
	Stdout io.Writer = os.Stdout
	// Stream copies step output to Stdout as it is produced, instead of only on failure.
	Stream = false
	// FsFactory returns the filesystem that scratch files are created on and OnlyIfNewer is checked against.
	FsFactory = func() afero.Fs {
		return afero.NewOsFs()
	}
	// TempDirPath returns the directory that scratch files are created in.
	TempDirPath = os.TempDir
	// MaxOutputSize is how much captured output is kept for the failure report.
	// Longer output is truncated, it never changes the outcome of a step.
	MaxOutputSize int64 = 8 * 1024 * 1024 // 8MB
)

var (
	// ErrBufferOverflow is returned when the output exceeds MaxOutputSize.
	ErrBufferOverflow = errors.New("output exceeds max size")
	// ErrFailedToReadBuffer is returned when the captured output could not be read back.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrCancelled is returned when the step was stopped because its context was cancelled.
	ErrCancelled = errors.New("step cancelled")
)

// stepFunc does the work of a step, writing everything it prints to w.
type stepFunc func(ctx context.Context, w io.Writer) (int, error)

// supervise runs fn with its output captured to a scratch file and a heartbeat on the console.
// The heartbeat is stopped and reaped before the output is read, so nothing is written
// to the console by the heartbeat once supervise has returned.
func supervise(ctx context.Context, base *BaseCommand, header failureHeader, fn stepFunc) *Result {
	logger := ctxlog.Logger(ctx).With("label", base.GetLabel(), "runID", uuid.New().String())

	res := &Result{
		Label:   base.GetLabel(),
		Allowed: base.AllowFailure,
	}

	console := &lockedWriter{w: Stdout}
	scratch := newScratch(ctx)
	res.ScratchFile = scratch.Name()

	defer scratch.remove(ctx)

	var w io.Writer = scratch
	if Stream {
		w = io.MultiWriter(scratch, console)
	}

	hb := startHeartbeat(ctx, console, HeartbeatInterval)
	res.ExitCode, res.Error = fn(ctx, w)
	hb.Stop()

	logger.Debug("step finished", "exitCode", res.ExitCode, "heartbeats", hb.beats)

	output, err := scratch.bytes(ctx)
	res.Output = output

	switch {
	case errors.Is(err, ErrBufferOverflow):
		logger.Warn("output truncated", "maxBytes", MaxOutputSize)
	case err != nil:
		logger.Warn("could not read captured output", "error", err)
	}

	switch {
	case res.ExitCode == 0 && res.Error == nil:
		res.Status = ResultStatusSuccess
		return res
	case res.ExitCode == 0:
		res.ExitCode = -1 // an error with a zero exit code is still a failure
	}

	res.Status = ResultStatusError

	if hb.beats > 0 {
		fmt.Fprintln(Stdout) //nolint:errcheck
	}

	if err := writeFailure(Stdout, header, res, !Stream); err != nil {
		logger.Warn("could not write failure report", "error", err)
	}

	return res
}

// heartbeat periodically writes a mark to keep an external supervisor from timing out.
type heartbeat struct {
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
	beats int // only read after done is closed
}

func startHeartbeat(ctx context.Context, w io.Writer, interval time.Duration) *heartbeat {
	hb := &heartbeat{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	if interval <= 0 {
		close(hb.done)
		return hb
	}

	go func() {
		defer close(hb.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := io.WriteString(w, HeartbeatMark); err != nil {
					ctxlog.Debug(ctx, "heartbeat write failed", "error", err)
				}

				hb.beats++

			case <-hb.stop:
				return
			}
		}
	}()

	return hb
}

// Stop signals the heartbeat goroutine and waits for it to exit.
func (hb *heartbeat) Stop() {
	hb.once.Do(func() {
		close(hb.stop)
	})
	<-hb.done
}

// lockedWriter serialises writes from the heartbeat and streamed output.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.w.Write(p) //nolint:wrapcheck
}

// scratch is the capture buffer of a single step.
// It is backed by a uniquely named temporary file, or by memory if no file could be created.
type scratch struct {
	fs   afero.Fs
	f    afero.File
	mem  *bytes.Buffer
	name string
}

func newScratch(ctx context.Context) *scratch {
	fs := FsFactory()
	dir := TempDirPath()

	s := &scratch{fs: fs}

	if err := fs.MkdirAll(dir, scratchDirPermissions); err != nil {
		ctxlog.Warn(ctx, "could not create scratch directory, capturing output in memory", "dir", dir, "error", err)
		s.mem = &bytes.Buffer{}

		return s
	}

	f, err := afero.TempFile(fs, dir, scratchPattern)
	if err != nil {
		ctxlog.Warn(ctx, "could not create scratch file, capturing output in memory", "dir", dir, "error", err)
		s.mem = &bytes.Buffer{}

		return s
	}

	s.f = f
	s.name = f.Name()
	ctxlog.Debug(ctx, "scratch file created", "name", s.name)

	return s
}

// Name returns the name of the scratch file, or an empty string when capturing to memory.
func (s *scratch) Name() string {
	return s.name
}

func (s *scratch) Write(p []byte) (int, error) {
	if s.mem != nil {
		return s.mem.Write(p) //nolint:wrapcheck
	}

	return s.f.Write(p) //nolint:wrapcheck
}

func (s *scratch) bytes(ctx context.Context) ([]byte, error) {
	if s.mem != nil {
		return readAllUpToMax(ctx, s.mem, MaxOutputSize)
	}

	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Join(ErrFailedToReadBuffer, err)
	}

	return readAllUpToMax(ctx, s.f, MaxOutputSize)
}

func (s *scratch) remove(ctx context.Context) {
	if s.f == nil {
		return
	}

	if err := s.f.Close(); err != nil {
		ctxlog.Debug(ctx, "could not close scratch file", "name", s.name, "error", err)
	}

	if err := s.fs.Remove(s.name); err != nil {
		ctxlog.Debug(ctx, "could not remove scratch file", "name", s.name, "error", err)
	}
}

// readAllUpToMax reads at most limit bytes from r.
// If r holds more, the first limit bytes are returned with ErrBufferOverflow.
func readAllUpToMax(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, limit+1)
	if err != nil && err != io.EOF {
		return nil, errors.Join(ErrFailedToReadBuffer, err)
	}

	if n > limit {
		ctxlog.Debug(ctx,
			"buffer overflow in readAllUpToMax",
			"bytesRead", n,
			"maxBytes", limit,
		)

		return buf.Bytes()[:limit], ErrBufferOverflow
	}

	return buf.Bytes(), nil
}
