// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/ciscripts/internal/color"
	"golang.org/x/term"
)

var (
	// ErrMarshalAttribute is returned when an error occurs while marshaling an attribute.
	ErrMarshalAttribute = errors.New("error when marshaling attribute")
	// ErrIoWrite is returned when an error occurs while writing to the output.
	ErrIoWrite = errors.New("error when writing to output")
)

// TimeFormat is the format used for timestamps in log messages.
const TimeFormat = "[15:04:05.000]"

const attrIndent = 2

// PrettyHandler is a slog handler that writes one human readable line per record:
// timestamp, level, message and the attributes as indented JSON.
type PrettyHandler struct {
	opts             slog.HandlerOptions
	attrs            map[string]any // bound with WithAttrs, nested by group
	groups           []string
	mu               *sync.Mutex // shared by clones so lines never interleave
	writer           io.Writer
	colour           bool
	outputEmptyAttrs bool
}

// Option implements a functional options pattern for PrettyHandler.
type Option func(h *PrettyHandler)

// WithDestinationWriter sets the destination writer for the PrettyHandler.
func WithDestinationWriter(writer io.Writer) Option {
	return func(h *PrettyHandler) {
		h.writer = writer
	}
}

// WithColour enables color output for the PrettyHandler.
func WithColour() Option {
	return func(h *PrettyHandler) {
		h.colour = true
	}
}

// WithAutoColour enables color output if the destination is a terminal that supports it.
func WithAutoColour() Option {
	return func(h *PrettyHandler) {
		h.colour = color.Enabled() && isTerminal(h.writer)
	}
}

// WithOutputEmptyAttrs writes `{}` for records without attributes.
func WithOutputEmptyAttrs() Option {
	return func(h *PrettyHandler) {
		h.outputEmptyAttrs = true
	}
}

// NewPrettyHandler creates a new PrettyHandler with the given options.
// Output goes to stderr unless WithDestinationWriter is given.
func NewPrettyHandler(handlerOptions *slog.HandlerOptions, options ...Option) *PrettyHandler {
	h := &PrettyHandler{
		attrs:  map[string]any{},
		mu:     &sync.Mutex{},
		writer: os.Stderr,
	}

	if handlerOptions != nil {
		h.opts = *handlerOptions
	}

	// the writer must be known before colour is decided
	for _, opt := range options {
		opt(h)
	}

	return h
}

// Enabled checks if the handler is enabled for the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

// WithAttrs creates a new handler with the given attributes.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h
	c.attrs = cloneTree(h.attrs)

	dst := subtree(c.attrs, c.groups)
	for _, a := range attrs {
		c.addAttr(dst, c.groups, a)
	}

	return &c
}

// WithGroup creates a new handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(slices.Clip(h.groups), name)

	return &c
}

// Handle implements the slog.Handler interface for PrettyHandler.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	out := strings.Builder{}

	if ts, ok := h.builtin(slog.TimeKey, slog.StringValue(r.Time.Format(TimeFormat))); ok {
		out.WriteString(h.paint(ts, color.FgWhite))
		out.WriteString(" ")
	}

	if lvl, ok := h.builtin(slog.LevelKey, slog.AnyValue(r.Level)); ok {
		out.WriteString(h.paint(lvl+":", levelColour(r.Level)))
		out.WriteString(" ")
	}

	if msg, ok := h.builtin(slog.MessageKey, slog.StringValue(r.Message)); ok {
		out.WriteString(h.paint(msg, color.FgHiWhite))
		out.WriteString(" ")
	}

	attrs := h.recordAttrs(r)

	if h.outputEmptyAttrs || len(attrs) > 0 {
		f := colorjson.NewFormatter()
		f.Indent = attrIndent
		f.DisabledColor = !h.colour

		b, err := f.Marshal(attrs)
		if err != nil {
			return errors.Join(ErrMarshalAttribute, err)
		}

		out.Write(b)
	}

	out.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := io.WriteString(h.writer, out.String()); err != nil {
		return errors.Join(ErrIoWrite, err)
	}

	return nil
}

// recordAttrs returns the bound attributes merged with those of r.
func (h *PrettyHandler) recordAttrs(r slog.Record) map[string]any {
	attrs := cloneTree(h.attrs)

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		h.addAttr(attrs, nil, slog.Any(slog.SourceKey, &slog.Source{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		}))
	}

	if r.NumAttrs() == 0 {
		return attrs
	}

	dst := subtree(attrs, h.groups)

	r.Attrs(func(a slog.Attr) bool {
		h.addAttr(dst, h.groups, a)
		return true
	})

	return attrs
}

// addAttr stores a in dst, applying ReplaceAttr and expanding groups.
func (h *PrettyHandler) addAttr(dst map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(groups, a)
		a.Value = a.Value.Resolve()
	}

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() != slog.KindGroup {
		dst[a.Key] = jsonValue(a.Value)
		return
	}

	members := a.Value.Group()
	if len(members) == 0 {
		return
	}

	// an unnamed group is inlined
	if a.Key != "" {
		dst = subtree(dst, []string{a.Key})
		groups = append(slices.Clip(groups), a.Key)
	}

	for _, m := range members {
		h.addAttr(dst, groups, m)
	}
}

// builtin applies the ReplaceAttr option to one of the built-in attributes.
// It reports false if the attribute was removed.
func (h *PrettyHandler) builtin(key string, v slog.Value) (string, bool) {
	a := slog.Attr{Key: key, Value: v}
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Equal(slog.Attr{}) {
		return "", false
	}

	return a.Value.String(), true
}

func (h *PrettyHandler) paint(s string, code color.Code) string {
	if !h.colour {
		return s
	}

	return color.Colorize(s, code)
}

// jsonValue converts v into the types colorjson can format:
// strings, float64, bool, nil, []any and map[string]any.
func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return float64(v.Int64())
	case slog.KindUint64:
		return float64(v.Uint64())
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	}

	val := v.Any()

	if err, ok := val.(error); ok {
		return err.Error()
	}

	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Sprint(val)
	}

	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Sprint(val)
	}

	return out
}

// subtree returns the map at path below m, creating it as needed.
func subtree(m map[string]any, path []string) map[string]any {
	for _, key := range path {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}

		m = next
	}

	return m
}

func cloneTree(m map[string]any) map[string]any {
	c := make(map[string]any, len(m))

	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			v = cloneTree(sub)
		}

		c[k] = v
	}

	return c
}

func levelColour(l slog.Level) color.Code {
	switch {
	case l <= slog.LevelDebug:
		return color.FgWhite
	case l <= slog.LevelInfo:
		return color.FgCyan
	case l < slog.LevelWarn:
		return color.FgBlue
	case l < slog.LevelError:
		return color.FgYellow
	case l <= slog.LevelError+1:
		return color.FgRed
	default:
		return color.FgHiMagenta
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
