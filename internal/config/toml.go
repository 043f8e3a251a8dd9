// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInvalidTOML is returned when a TOML steps file cannot be decoded.
var ErrInvalidTOML = errors.New("invalid TOML")

// ParseTOML decodes and validates a TOML steps file. Steps are [[steps]] tables
// and unknown keys are rejected.
func ParseTOML(data []byte) (*Definition, error) {
	def := new(Definition)

	meta, err := toml.Decode(string(data), def)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTOML, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}

		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidTOML, strings.Join(keys, ", "))
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return def, nil
}
