// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/simplechat/internal/conversation"
)

// =============================================================================
// TEA MESSAGES
// =============================================================================

// resolvedMsg carries the outcome of a completion back into Update.
type resolvedMsg struct {
	resolution conversation.Resolution
}

// configChangedMsg is sent when the config file changes on disk.
type configChangedMsg struct{}

// runRequest performs req off the Update goroutine.
func runRequest(ctx context.Context, req *conversation.Request) tea.Cmd {
	return func() tea.Msg {
		return resolvedMsg{resolution: req.Run(ctx)}
	}
}

// waitForConfigChange blocks until the watcher signals a change.
func waitForConfigChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}
