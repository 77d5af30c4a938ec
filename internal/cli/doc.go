// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the simplechat command line.
//
// # Commands
//
//   - simplechat, simplechat chat: interactive chat (full-screen on a
//     terminal, line-oriented with --plain or when redirected)
//   - simplechat ask: one prompt, one reply; exit status 1 on failure
//   - simplechat config show|path|init: inspect or create the config file
//   - simplechat version: build information
//
// Global flags --config, --model, --base-url and --log-level override the
// config file and environment.
package cli
