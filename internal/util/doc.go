// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across simplechat.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: Column-aware truncation for the terminal
//   - StringWidth, MaxLineWidth: Display width of text
//   - OneLine: Collapse whitespace for single-line display
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Fit a host name into the footer
//	host := util.TruncateWidth(client.Host(), 30)
//
//	// Write the config template without ever leaving a partial file
//	err := util.AtomicWriteFile(path, data, 0600)
package util
