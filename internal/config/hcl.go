// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// ErrInvalidHCL is returned when an HCL steps file cannot be decoded.
var ErrInvalidHCL = errors.New("invalid HCL")

// Environ returns the environment exposed to HCL files as env.<NAME>.
var Environ = os.Environ

type hclFile struct {
	Name        string            `hcl:"name,optional"`
	Description string            `hcl:"description,optional"`
	Env         map[string]string `hcl:"env,optional"`
	Steps       []hclStep         `hcl:"step,block"`
}

type hclStep struct {
	Name          string            `hcl:"name,label"`
	Command       []string          `hcl:"command,optional"`
	CommandLine   string            `hcl:"command_line,optional"`
	Cwd           string            `hcl:"cwd,optional"`
	Env           map[string]string `hcl:"env,optional"`
	AllowFailure  bool              `hcl:"allow_failure,optional"`
	InstantFail   bool              `hcl:"instant_fail,optional"`
	OnlyIfMissing string            `hcl:"only_if_missing,optional"`
	OnlyIfNewer   string            `hcl:"only_if_newer,optional"`
	NewerThan     string            `hcl:"newer_than,optional"`
}

// ParseHCL decodes and validates an HCL steps file.
// filename is only used in diagnostics.
func ParseHCL(filename string, data []byte) (*Definition, error) {
	var f hclFile

	if err := hclsimple.Decode(filename, data, evalContext(), &f); err != nil {
		return nil, errors.Join(ErrInvalidHCL, err)
	}

	def := &Definition{
		Name:        f.Name,
		Description: f.Description,
		Env:         f.Env,
		Steps:       make([]Step, 0, len(f.Steps)),
	}

	for _, s := range f.Steps {
		def.Steps = append(def.Steps, Step(s))
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return def, nil
}

func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	for _, kv := range Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !hclIdentifier(k) {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
		Functions: map[string]function.Function{
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"join":   stdlib.JoinFunc,
			"format": stdlib.FormatFunc,
			"split":  stdlib.SplitFunc,
		},
	}
}

// hclIdentifier reports whether s can be used as an attribute name after env.
func hclIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}

	return true
}
