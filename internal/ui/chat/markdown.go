// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders assistant replies with glamour.
//
// A glamour renderer is bound to a wrap width, so one is built per width and
// reused until the terminal is resized.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer(style string) *markdownRenderer {
	return &markdownRenderer{style: style}
}

// Render returns content rendered for width columns. On any glamour failure
// the caller gets ok == false and should show the plain text.
func (r *markdownRenderer) Render(content string, width int) (out string, ok bool) {
	if r == nil || width <= 0 {
		return "", false
	}
	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", false
		}
		r.renderer = tr
		r.width = width
	}

	rendered, err := r.renderer.Render(content)
	if err != nil {
		return "", false
	}
	return strings.Trim(rendered, "\n"), true
}
