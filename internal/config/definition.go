// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNoSteps is returned when a steps file has no steps.
	ErrNoSteps = errors.New("no steps specified")
	// ErrStepName is returned when a step has no name.
	ErrStepName = errors.New("step has no name")
	// ErrStepCommand is returned when a step has neither or both of command and command_line.
	ErrStepCommand = errors.New("step must have exactly one of command or command_line")
	// ErrStepEmptyCommand is returned when the command of a step has an empty program.
	ErrStepEmptyCommand = errors.New("step command has no program")
	// ErrStepNewerThan is returned when a step sets newer_than without only_if_newer.
	ErrStepNewerThan = errors.New("step sets newer_than without only_if_newer")
	// ErrInvalidConfig is returned when a steps file fails validation.
	ErrInvalidConfig = errors.New("invalid steps file")
)

// Definition is the root of a steps file.
type Definition struct {
	Name        string            `yaml:"name" toml:"name"`
	Description string            `yaml:"description" toml:"description"`
	Env         map[string]string `yaml:"env" toml:"env"`
	Steps       []Step            `yaml:"steps" toml:"steps"`
}

// Step is a single step of a steps file.
type Step struct {
	Name          string            `yaml:"name" toml:"name"`
	Command       []string          `yaml:"command" toml:"command"`
	CommandLine   string            `yaml:"command_line" toml:"command_line"`
	Cwd           string            `yaml:"cwd" toml:"cwd"`
	Env           map[string]string `yaml:"env" toml:"env"`
	AllowFailure  bool              `yaml:"allow_failure" toml:"allow_failure"`
	InstantFail   bool              `yaml:"instant_fail" toml:"instant_fail"`
	OnlyIfMissing string            `yaml:"only_if_missing" toml:"only_if_missing"`
	OnlyIfNewer   string            `yaml:"only_if_newer" toml:"only_if_newer"`
	NewerThan     string            `yaml:"newer_than" toml:"newer_than"`
}

// StepError is a validation error for the step at Index.
type StepError struct {
	Index int
	Name  string
	Err   error
}

// Error implements the error interface for StepError.
func (e *StepError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("step %d: %s", e.Index+1, e.Err)
	}

	return fmt.Sprintf("step %d (%s): %s", e.Index+1, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Validate reports every problem with the definition.
func (d *Definition) Validate() error {
	if len(d.Steps) == 0 {
		return errors.Join(ErrInvalidConfig, ErrNoSteps)
	}

	var result *multierror.Error

	for i, s := range d.Steps {
		if s.Name == "" {
			result = multierror.Append(result, &StepError{Index: i, Err: ErrStepName})
		}

		switch {
		case (len(s.Command) == 0) == (s.CommandLine == ""):
			result = multierror.Append(result, &StepError{Index: i, Name: s.Name, Err: ErrStepCommand})
		case len(s.Command) > 0 && s.Command[0] == "":
			result = multierror.Append(result, &StepError{Index: i, Name: s.Name, Err: ErrStepEmptyCommand})
		}

		if s.NewerThan != "" && s.OnlyIfNewer == "" {
			result = multierror.Append(result, &StepError{Index: i, Name: s.Name, Err: ErrStepNewerThan})
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}
