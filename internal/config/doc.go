// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for simplechat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Completion endpoint, model, credential, timeout and throttle
//   - UIConfig: Theme and markdown rendering
//   - LogConfig: Structured log level, format and destination
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the caller)
//   - Environment variables (SIMPLECHAT_*, OPENAI_API_KEY)
//   - ~/.simplechat/config.toml
//   - ~/.simplechat/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Access settings:
//
//	timeout := cfg.API.TimeoutDuration()
//	model := cfg.API.Model
package config
