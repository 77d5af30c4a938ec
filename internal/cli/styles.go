// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/simplechat/internal/config"
	"github.com/jeranaias/simplechat/internal/ui/styles"
)

// =============================================================================
// LINE OUTPUT STYLES
// =============================================================================

// outputStyles are the styles used by the line-oriented commands.
// They are bound to one writer so color follows that writer's capabilities.
type outputStyles struct {
	Label    lipgloss.Style
	Thinking lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Muted    lipgloss.Style
}

func newOutputStyles(w io.Writer) outputStyles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(colorProfile(w))

	return outputStyles{
		Label:    r.NewStyle().Foreground(styles.Cyan).Bold(true),
		Thinking: r.NewStyle().Foreground(styles.TextSecondary).Italic(true),
		Error:    r.NewStyle().Foreground(styles.Rose),
		Success:  r.NewStyle().Foreground(styles.Emerald).Bold(true),
		Muted:    r.NewStyle().Foreground(styles.TextMuted),
	}
}

// =============================================================================
// MARKDOWN REPLIES
// =============================================================================

// replyRenderer returns a function that formats assistant replies for w.
// Replies are rendered as markdown only when w is a terminal and markdown is
// enabled; otherwise, and whenever glamour fails, the text passes through.
func replyRenderer(ui config.UIConfig, w io.Writer, logger *slog.Logger) func(string) string {
	plain := func(s string) string { return s }
	if !ui.Markdown || !isTerminal(w) {
		return plain
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(GetTerminalWidth() - 4)}
	switch theme := strings.ToLower(ui.Theme); theme {
	case styles.ModeDark, styles.ModeLight:
		opts = append(opts, glamour.WithStandardStyle(theme))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		logger.Warn("markdown renderer unavailable", "error", err)
		return plain
	}

	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return strings.Trim(out, "\n")
	}
}
