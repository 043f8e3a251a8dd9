// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs CI steps one after another under a watchdog.
// Each step's combined output is captured to a scratch file while a heartbeat keeps the CI
// supervisor from treating the job as hung. Failed steps have their output and a remediation
// notice printed, and the batch carries on so that every step is attempted.
// The number of failed steps becomes the exit status of the process.
package runbatch
