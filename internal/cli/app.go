// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jeranaias/simplechat/internal/cloud"
	"github.com/jeranaias/simplechat/internal/config"
	"github.com/jeranaias/simplechat/internal/conversation"
	"github.com/jeranaias/simplechat/internal/logging"
)

// ErrNoAPIKey is returned when no credential is configured.
var ErrNoAPIKey = errors.New("no API key configured: set SIMPLECHAT_API_KEY (or OPENAI_API_KEY) or api.api_key in the config file")

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	model      string
	baseURL    string
	logLevel   string
}

// configFile returns the config file in effect and whether it exists.
// Without --config this is the TOML file if present, else the JSON file if
// present, else the TOML path a new file would be written to.
func (o *rootOptions) configFile() (string, bool, error) {
	if o.configPath != "" {
		_, err := os.Stat(o.configPath)
		return o.configPath, err == nil, nil
	}

	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, true, nil
	}

	jsonPath, err := config.ConfigPathJSON()
	if err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath, true, nil
		}
	}
	return tomlPath, false, nil
}

// loadConfig loads the config file (or defaults) and applies flag overrides.
// Flags beat the environment, which beats the file.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.model != "" {
		cfg.API.Model = o.model
	}
	if o.baseURL != "" {
		cfg.API.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, o.flagError(err)
	}
	return cfg, nil
}

// flagError names the flag responsible for a validation failure, if any.
func (o *rootOptions) flagError(err error) error {
	verrs, ok := config.AsValidateErrors(err)
	if !ok {
		return err
	}
	flags := []struct{ name, field, value string }{
		{"model", "api.model", o.model},
		{"base-url", "api.base_url", o.baseURL},
		{"log-level", "log.level", o.logLevel},
	}
	for _, f := range flags {
		if f.value != "" && verrs.HasField(f.field) {
			return fmt.Errorf("invalid --%s %q: %w", f.name, f.value, err)
		}
	}
	return fmt.Errorf("invalid configuration: %w", err)
}

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// app is everything a chat-capable command needs.
type app struct {
	cfg    *config.Config
	client *cloud.Client
	logger *slog.Logger
	logs   io.Closer
}

// newApp loads configuration, opens the log file and builds the client.
// The caller must Close the result.
func (o *rootOptions) newApp() (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.API.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	logger, logs, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, err
	}

	client := cloud.NewClient().
		WithBaseURL(cfg.API.BaseURL).
		WithModel(cfg.API.Model).
		WithTimeout(cfg.API.TimeoutDuration()).
		WithRequestsPerMinute(cfg.API.RequestsPerMinute).
		WithLogger(logger)

	logger.Info("session starting",
		"endpoint", client.Endpoint(),
		"model", client.Model(),
		"timeout", client.Timeout().String(),
		"credential", cloud.Fingerprint(cfg.API.APIKey),
	)

	return &app{cfg: cfg, client: client, logger: logger, logs: logs}, nil
}

// newController creates a controller bound to the app's client and credential.
func (a *app) newController() *conversation.Controller {
	return conversation.NewController(a.client, a.cfg.API.APIKey).WithLogger(a.logger)
}

// Close flushes and closes the log file.
func (a *app) Close() error {
	a.logger.Info("session ended")
	return a.logs.Close()
}
