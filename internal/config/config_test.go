// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/ciscripts/internal/runbatch"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSteps = `name: build
description: install and test
env:
  PIP_DISABLE_PIP_VERSION_CHECK: "1"
steps:
  - name: install project
    command: [pip, install, "."]
    instant_fail: true
  - name: tests
    command_line: "python -m pytest"
    cwd: tests
    env:
      PYTHONHASHSEED: "0"
  - name: install pandoc
    command: [cabal, install, pandoc]
    only_if_missing: pandoc
    allow_failure: true
`

const hclSteps = `
name = "build"
env = {
  HOME_COPY = env.HOME
}

step "install project" {
  command      = ["pip", "install", "."]
  instant_fail = true
}

step "tests" {
  command_line = format("python -m pytest %s", lower("TESTS"))
  cwd          = "tests"
}

step "install pandoc" {
  command         = ["cabal", "install", "pandoc"]
  only_if_missing = "pandoc"
  allow_failure   = true
}
`

func assertSteps(t *testing.T, def *Definition, commandLine string) {
	t.Helper()

	require.Len(t, def.Steps, 3)
	assert.Equal(t, "build", def.Name)

	assert.Equal(t, "install project", def.Steps[0].Name)
	assert.Equal(t, []string{"pip", "install", "."}, def.Steps[0].Command)
	assert.True(t, def.Steps[0].InstantFail)

	assert.Equal(t, "tests", def.Steps[1].Name)
	assert.Equal(t, commandLine, def.Steps[1].CommandLine)
	assert.Equal(t, "tests", def.Steps[1].Cwd)

	assert.Equal(t, "pandoc", def.Steps[2].OnlyIfMissing)
	assert.True(t, def.Steps[2].AllowFailure)
}

func TestParseYAML(t *testing.T) {
	def, err := ParseYAML([]byte(yamlSteps))
	require.NoError(t, err)

	assertSteps(t, def, "python -m pytest")
	assert.Equal(t, map[string]string{"PIP_DISABLE_PIP_VERSION_CHECK": "1"}, def.Env)
	assert.Equal(t, map[string]string{"PYTHONHASHSEED": "0"}, def.Steps[1].Env)
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML([]byte("steps:\n  - name: a\n    command: [true]\n    retries: 3\n"))
	require.ErrorIs(t, err, ErrInvalidYaml)
}

func TestParseHCL(t *testing.T) {
	defer gostub.Stub(&Environ, func() []string {
		return []string{"HOME=/home/ci", "WITH(PAREN)=ignored", "NOEQUALS"}
	}).Reset()

	def, err := ParseHCL("steps.hcl", []byte(hclSteps))
	require.NoError(t, err)

	assertSteps(t, def, "python -m pytest tests")
	assert.Equal(t, map[string]string{"HOME_COPY": "/home/ci"}, def.Env)
}

func TestParseHCL_UnknownVariable(t *testing.T) {
	defer gostub.Stub(&Environ, func() []string { return nil }).Reset()

	_, err := ParseHCL("steps.hcl", []byte(`step "a" { command_line = env.MISSING }`))
	require.ErrorIs(t, err, ErrInvalidHCL)
}

const tomlSteps = `
name = "build"

[env]
PIP_DISABLE_PIP_VERSION_CHECK = "1"

[[steps]]
name = "install project"
command = ["pip", "install", "."]
instant_fail = true

[[steps]]
name = "tests"
command_line = "python -m pytest"
cwd = "tests"

[steps.env]
PYTHONHASHSEED = "0"

[[steps]]
name = "install pandoc"
command = ["cabal", "install", "pandoc"]
only_if_missing = "pandoc"
allow_failure = true
`

func TestParseTOML(t *testing.T) {
	def, err := ParseTOML([]byte(tomlSteps))
	require.NoError(t, err)

	assertSteps(t, def, "python -m pytest")
	assert.Equal(t, map[string]string{"PIP_DISABLE_PIP_VERSION_CHECK": "1"}, def.Env)
	assert.Equal(t, map[string]string{"PYTHONHASHSEED": "0"}, def.Steps[1].Env)
}

func TestParseTOML_UnknownKey(t *testing.T) {
	_, err := ParseTOML([]byte("[[steps]]\nname = \"a\"\ncommand = [\"true\"]\nretries = 3\n"))
	require.ErrorIs(t, err, ErrInvalidTOML)
	assert.ErrorContains(t, err, "steps.retries")
}

func TestParse_SelectsFormatByExtension(t *testing.T) {
	def, err := Parse("ci/steps.TOML", []byte(tomlSteps))
	require.NoError(t, err)
	assert.Len(t, def.Steps, 3)

	def, err = Parse("steps.yml", []byte(yamlSteps))
	require.NoError(t, err)
	assert.Len(t, def.Steps, 3)

	_, err = Parse("steps.yaml", []byte(tomlSteps))
	require.ErrorIs(t, err, ErrInvalidYaml)
}

func TestValidate(t *testing.T) {
	def := &Definition{
		Steps: []Step{
			{Command: []string{"true"}},
			{Name: "both", Command: []string{"true"}, CommandLine: "true"},
			{Name: "neither"},
			{Name: "empty program", Command: []string{""}},
			{Name: "fine", CommandLine: "make"},
			{Name: "no file", CommandLine: "make", NewerThan: "build.stamp"},
		},
	}

	err := def.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorIs(t, err, ErrStepName)
	require.ErrorIs(t, err, ErrStepCommand)
	require.ErrorIs(t, err, ErrStepEmptyCommand)
	require.ErrorIs(t, err, ErrStepNewerThan)

	var merr *multierror.Error

	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 5, "every problem is reported")

	var stepErr *StepError

	require.ErrorAs(t, merr.Errors[1], &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "step 2 (both): step must have exactly one of command or command_line", stepErr.Error())
}

func TestValidate_NoSteps(t *testing.T) {
	require.ErrorIs(t, (&Definition{Name: "empty"}).Validate(), ErrNoSteps)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	defer gostub.Stub(&FsFactory, func() afero.Fs { return fs }).Reset()
	defer gostub.Stub(&Environ, func() []string { return []string{"HOME=/home/ci"} }).Reset()

	require.NoError(t, afero.WriteFile(fs, "/ci/nightly.yml", []byte("steps:\n  - name: a\n    command: [\"true\"]\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/ci/steps.HCL", []byte(hclSteps), 0o644))

	def, err := Load(context.Background(), "/ci/nightly.yml")
	require.NoError(t, err)
	assert.Equal(t, "nightly", def.Name, "name defaults to the file name")

	def, err = Load(context.Background(), "/ci/steps.HCL")
	require.NoError(t, err)
	assert.Equal(t, "build", def.Name)

	_, err = Load(context.Background(), "/ci/missing.yml")
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	def, err := ParseYAML([]byte(yamlSteps))
	require.NoError(t, err)

	batch, err := def.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "build", batch.GetLabel())
	assert.Equal(t, map[string]string{"PIP_DISABLE_PIP_VERSION_CHECK": "1"}, batch.Env)
	require.Len(t, batch.Commands, 3)

	install, ok := batch.Commands[0].(*runbatch.OSCommand)
	require.True(t, ok)
	assert.Equal(t, "pip", install.Path)
	assert.Equal(t, []string{"install", "."}, install.Args)
	assert.True(t, install.Policy().InstantFail)

	tests, ok := batch.Commands[1].(*runbatch.OSCommand)
	require.True(t, ok)
	assert.Equal(t, []string{"python -m pytest"}, tests.Args[1:])
	assert.Equal(t, "tests", tests.Cwd)

	pandoc, ok := batch.Commands[2].(*runbatch.OSCommand)
	require.True(t, ok)
	assert.Equal(t, "pandoc", pandoc.OnlyIfMissing)
	assert.True(t, pandoc.Policy().AllowFailure)
	assert.Same(t, runbatch.Runnable(batch), pandoc.GetParent())
}

func TestBuild_OnlyIfNewer(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{
			name: "yaml",
			file: "docs.yml",
			data: "steps:\n  - name: docs\n    command: [make, docs]\n    only_if_newer: README.rst\n    newer_than: build/README.html\n",
		},
		{
			name: "hcl",
			file: "docs.hcl",
			data: "step \"docs\" {\n  command       = [\"make\", \"docs\"]\n  only_if_newer = \"README.rst\"\n  newer_than    = \"build/README.html\"\n}\n",
		},
		{
			name: "toml",
			file: "docs.toml",
			data: "[[steps]]\nname = \"docs\"\ncommand = [\"make\", \"docs\"]\nonly_if_newer = \"README.rst\"\nnewer_than = \"build/README.html\"\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def, err := Parse(tc.file, []byte(tc.data))
			require.NoError(t, err)

			batch, err := def.Build(context.Background())
			require.NoError(t, err)
			require.Len(t, batch.Commands, 1)

			docs, ok := batch.Commands[0].(*runbatch.OSCommand)
			require.True(t, ok)
			assert.Equal(t, "README.rst", docs.OnlyIfNewer)
			assert.Equal(t, "build/README.html", docs.NewerThan)
		})
	}
}
