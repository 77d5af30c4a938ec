// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/simplechat/internal/model"
	"github.com/jeranaias/simplechat/internal/tokens"
	"github.com/jeranaias/simplechat/internal/ui/styles"
	"github.com/jeranaias/simplechat/internal/util"
)

// Title is shown in the header.
const Title = "Simple LLM Chat"

// View renders the chat view.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.renderChat()
}

// renderChat stacks the header, history, input area and footer.
func (m Model) renderChat() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderFooter(),
	)
}

// =============================================================================
// HEADER / FOOTER
// =============================================================================

func (m Model) renderHeader() string {
	return m.theme.Header.
		Width(max(m.width-2, 0)).
		Render(m.theme.HeaderTitle.Render(Title))
}

func (m Model) renderFooter() string {
	inner := max(m.width-2, 1)

	note := fmt.Sprintf("Connected to %s · model %s", m.host, m.modelName)
	lines := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.FooterNote.Render(util.TruncateWidth(note, inner)),
		m.theme.HelpLine.Render(util.TruncateWidth(m.keys.HelpLine(), inner)),
	)
	return m.theme.Footer.Width(max(m.width, 0)).Render(lines)
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInput draws the status line above the input. The status line is
// always present so the layout height never changes.
func (m Model) renderInput() string {
	inner := max(m.width-2, 1)

	status := " "
	switch {
	case m.state.pending:
		status = m.spinner.View() + " " + m.theme.ThinkingText.Render("Thinking...")
	case m.noticeKind == noticeSuccess:
		status = m.theme.RenderSuccess(m.notice)
	case m.noticeKind == noticeWarning:
		status = m.theme.RenderWarning(m.notice)
	}

	line := m.input.View()
	if m.tokenCount > 0 {
		line += "  " + m.theme.TokenCount.Render(tokenLabel(m.tokenCount))
	}

	clip := lipgloss.NewStyle().MaxWidth(inner)
	body := lipgloss.JoinVertical(lipgloss.Left, clip.Render(status), clip.Render(line))
	return m.theme.InputContainer.Width(max(m.width, 0)).Render(body)
}

func tokenLabel(n int) string {
	unit := "tokens"
	if n == 1 {
		unit = "token"
	}
	if tokens.Exact() {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("~%d %s", n, unit)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages draws the whole history for the viewport.
func (m Model) renderMessages() string {
	if len(m.state.history) == 0 {
		hint := m.theme.MessageMeta.Render("Type a message and press Enter to start.")
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, hint)
	}

	m.resetMarkdownCache()

	var b strings.Builder
	for i, msg := range m.state.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.IsUser() {
			b.WriteString(m.renderUserMessage(msg))
		} else {
			b.WriteString(m.renderAssistantMessage(msg))
		}
	}
	return b.String()
}

// renderUserMessage right-aligns the bubble.
func (m Model) renderUserMessage(msg model.Message) string {
	style := m.theme.UserBubble
	if m.bubbleNeedsWrap(msg.Content, style) {
		style = style.Width(m.theme.BubbleWidth() - 2)
	}

	block := lipgloss.JoinVertical(lipgloss.Right,
		m.renderMeta(msg),
		style.Render(msg.Content),
	)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, block)
}

// renderAssistantMessage left-aligns the bubble. Replies are rendered as
// markdown when enabled; errors and anything glamour rejects are plain.
func (m Model) renderAssistantMessage(msg model.Message) string {
	var bubble string
	switch {
	case m.state.failed[msg.ID]:
		style := m.theme.ErrorBubble
		content := styles.StatusIndicators.Error + " " + msg.Content
		if m.bubbleNeedsWrap(content, style) {
			style = style.Width(m.theme.BubbleWidth() - 2)
		}
		bubble = style.Render(content)

	default:
		if rendered, ok := m.renderMarkdown(msg); ok {
			bubble = m.theme.AssistantBubble.Render(rendered)
			break
		}
		style := m.theme.AssistantBubble
		if m.bubbleNeedsWrap(msg.Content, style) {
			style = style.Width(m.theme.BubbleWidth() - 2)
		}
		bubble = style.Render(msg.Content)
	}

	block := lipgloss.JoinVertical(lipgloss.Left, m.renderMeta(msg), bubble)
	return lipgloss.NewStyle().MarginLeft(1).Render(block)
}

func (m Model) renderMeta(msg model.Message) string {
	return m.theme.MessageMeta.Render(
		msg.Origin.DisplayName() + " · " + msg.Timestamp.Format("15:04"))
}

// bubbleNeedsWrap reports whether content is wider than a bubble may be.
func (m Model) bubbleNeedsWrap(content string, style lipgloss.Style) bool {
	frame := style.GetHorizontalFrameSize()
	return util.MaxLineWidth(content)+frame > m.theme.BubbleWidth()
}

// renderMarkdown renders an assistant reply, caching by message ID.
func (m Model) renderMarkdown(msg model.Message) (string, bool) {
	if m.markdown == nil {
		return "", false
	}
	if out, ok := m.state.markdown[msg.ID]; ok {
		return out, true
	}

	width := m.theme.BubbleWidth() - m.theme.AssistantBubble.GetHorizontalFrameSize()
	out, ok := m.markdown.Render(msg.Content, width)
	if !ok {
		m.logger.Debug("markdown render failed, showing plain text", "message_id", msg.ID)
		return "", false
	}
	m.state.markdown[msg.ID] = out
	return out, true
}

// resetMarkdownCache drops rendered replies when the bubble width changed.
func (m Model) resetMarkdownCache() {
	width := m.theme.BubbleWidth()
	if m.state.markdownWidth == width {
		return
	}
	m.state.markdownWidth = width
	clear(m.state.markdown)
}
