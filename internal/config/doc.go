// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads steps files for the run subcommand.
//
// A steps file is HCL if its name ends in .hcl, TOML if it ends in .toml and YAML otherwise.
// All three describe a named list of steps, each either an argument vector (command)
// or a shell command line (command_line).
// All validation problems are reported together.
package config
