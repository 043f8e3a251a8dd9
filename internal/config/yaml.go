// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ErrInvalidYaml is returned when a YAML steps file cannot be decoded.
var ErrInvalidYaml = errors.New("invalid YAML")

// ParseYAML decodes and validates a YAML steps file. Unknown fields are rejected.
func ParseYAML(data []byte) (*Definition, error) {
	def := new(Definition)

	if err := yaml.UnmarshalWithOptions(data, def, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidYaml, yaml.FormatError(err, false, true))
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return def, nil
}
