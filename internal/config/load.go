// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/ciscripts/internal/commands/shellcommand"
	"github.com/matt-FFFFFF/ciscripts/internal/ctxlog"
	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
	"github.com/spf13/afero"
)

const (
	hclExt  = ".hcl"
	tomlExt = ".toml"
)

// FsFactory returns the filesystem that steps files are read from.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Parse decodes a steps file. The extension of name selects HCL or TOML, anything else is YAML.
func Parse(name string, data []byte) (*Definition, error) {
	switch ext := filepath.Ext(name); {
	case strings.EqualFold(ext, hclExt):
		return ParseHCL(name, data)
	case strings.EqualFold(ext, tomlExt):
		return ParseTOML(data)
	default:
		return ParseYAML(data)
	}
}

// Load reads and decodes the steps file at path.
func Load(ctx context.Context, path string) (*Definition, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to read steps file %s: %w", path, err)
	}

	ctxlog.Debug(ctx, "loaded steps file", "path", path, "bytes", len(data))

	def, err := Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return def, nil
}

// Build turns the definition into a batch whose steps run in file order.
func (d *Definition) Build(ctx context.Context) (*runbatch.SerialBatch, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	steps := make([]runbatch.Runnable, 0, len(d.Steps))

	for _, s := range d.Steps {
		step, err := s.build(ctx)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", s.Name, err)
		}

		steps = append(steps, step)
	}

	return runbatch.NewSerialBatch(runbatch.NewBaseCommand(d.Name, "", d.Env), steps...), nil
}

func (s Step) build(ctx context.Context) (runbatch.Runnable, error) {
	base := runbatch.NewBaseCommand(s.Name, s.Cwd, s.Env)
	base.AllowFailure = s.AllowFailure
	base.InstantFail = s.InstantFail
	base.OnlyIfMissing = s.OnlyIfMissing
	base.OnlyIfNewer = s.OnlyIfNewer
	base.NewerThan = s.NewerThan

	if s.CommandLine != "" {
		return shellcommand.New(ctx, base, s.CommandLine)
	}

	return &runbatch.OSCommand{
		BaseCommand: base,
		Path:        s.Command[0],
		Args:        s.Command[1:],
	}, nil
}
