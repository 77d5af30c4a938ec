// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the terminal chat view for simplechat.

The view is a Bubble Tea model wrapping a conversation.Controller. The Update
loop is the controller's coordinating goroutine: key presses become Submit
calls, the completion runs as a tea.Cmd, and its Resolution comes back as a
message that Update hands to Resolve.

# Layout

  - Header with the application title
  - Scrollable history: user bubbles on the right, assistant bubbles on the
    left (markdown rendered with glamour when enabled)
  - Status line ("Thinking..." while a reply is pending, otherwise notices)
  - Input line with a token count for the current prompt
  - Footer naming the endpoint host and model, plus the key help

# Usage

	ctrl := conversation.NewController(client, cfg.API.APIKey)
	m := chat.New(ctrl, styles.NewTheme(cfg.UI.Theme), chat.Options{
	    Host:     client.Host(),
	    Model:    client.Model(),
	    Markdown: cfg.UI.Markdown,
	})
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
*/
package chat
