// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// Diagnostics are written to stderr so that they never mix with step banners, heartbeats
// and failure reports on stdout. The level is read from CISCRIPTS_LOG_LEVEL at start up
// and defaults to WARN.
package ctxlog
