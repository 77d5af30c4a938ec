// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/simplechat/internal/conversation"
	"github.com/jeranaias/simplechat/internal/logging"
	"github.com/jeranaias/simplechat/internal/model"
	"github.com/jeranaias/simplechat/internal/tokens"
	"github.com/jeranaias/simplechat/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat view.
type Options struct {
	// Host and Model are shown in the footer note.
	Host  string
	Model string

	// Markdown enables glamour rendering of assistant replies.
	Markdown bool
	// MarkdownStyle overrides the glamour standard style; empty follows the theme.
	MarkdownStyle string

	// ConfigChanges, when set, receives a value each time the config file
	// changes on disk.
	ConfigChanges <-chan struct{}

	// Context bounds every completion request.
	Context context.Context

	Logger *slog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

type noticeKind int

const (
	noticeNone noticeKind = iota
	noticeSuccess
	noticeWarning
)

// renderState is what the controller last told the view to draw.
// It is shared by every copy of Model.
type renderState struct {
	history []model.Message
	pending bool

	// failed holds the IDs of assistant messages that describe an error.
	failed map[string]bool

	// markdown caches rendered replies by message ID for markdownWidth.
	markdown      map[string]string
	markdownWidth int
}

// Model is the Bubble Tea model for the chat view.
//
// It wraps a conversation.Controller. Update is the controller's coordinating
// goroutine: Submit and Resolve are only ever called from there, and the
// network call runs as a tea.Cmd whose result comes back as a message.
type Model struct {
	ctrl  *conversation.Controller
	state *renderState
	ctx   context.Context

	theme    *styles.Theme
	keys     KeyMap
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	markdown *markdownRenderer

	host      string
	modelName string

	configChanges <-chan struct{}
	writeClipboard func(string) error

	notice     string
	noticeKind noticeKind
	tokenCount int

	width  int
	height int
	ready  bool

	logger *slog.Logger
}

// New creates a chat view driving ctrl.
//
// New installs its own renderer on ctrl; the controller should not be shared
// with another view.
func New(ctrl *conversation.Controller, theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 0 // unbounded
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	var md *markdownRenderer
	if opts.Markdown {
		style := opts.MarkdownStyle
		if style == "" {
			style = theme.GlamourStyle()
		}
		md = newMarkdownRenderer(style)
	}

	state := &renderState{
		failed:   make(map[string]bool),
		markdown: make(map[string]string),
	}
	ctrl.WithRenderer(conversation.RendererFunc(func(history []model.Message, pending bool) {
		state.history = history
		state.pending = pending
	}))

	return Model{
		ctrl:           ctrl,
		state:          state,
		ctx:            ctx,
		theme:          theme,
		keys:           DefaultKeyMap(),
		input:          ti,
		viewport:       viewport.New(80, 20),
		spinner:        sp,
		markdown:       md,
		host:           opts.Host,
		modelName:      opts.Model,
		configChanges:  opts.ConfigChanges,
		writeClipboard: clipboard.WriteAll,
		logger:         logger,
	}
}

// Init starts the cursor blinking and the config change listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForConfigChange(m.configChanges))
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles every Bubble Tea message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case resolvedMsg:
		return m.handleResolved(msg)

	case spinner.TickMsg:
		if !m.ctrl.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case configChangedMsg:
		m.logger.Info("config file changed on disk")
		m.setNotice(noticeWarning, "Config file changed; restart to apply it.")
		return m, waitForConfigChange(m.configChanges)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.input.Width = max(msg.Width-22, 10)

	reserved := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderFooter())
	vpHeight := max(msg.Height-reserved, 3)

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}

	m.refreshViewport()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Copy):
		return m.copyLastReply(), nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	if m.ctrl.Pending() {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.tokenCount = tokens.Count(m.input.Value())
	return m, cmd
}

// submit hands the input to the controller. Admitted input is cleared and the
// request is started; rejected input stays in the field.
func (m Model) submit() (tea.Model, tea.Cmd) {
	req, res := m.ctrl.Submit(m.input.Value())
	if !res.Admitted {
		if res.Reason == conversation.RejectBusy {
			m.setNotice(noticeWarning, "Still waiting for the last reply.")
		}
		return m, nil
	}

	m.clearNotice()
	m.input.Reset()
	m.input.Blur()
	m.tokenCount = 0
	m.refreshViewport()

	return m, tea.Batch(m.spinner.Tick, runRequest(m.ctx, req))
}

func (m Model) handleResolved(msg resolvedMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.Resolve(msg.resolution) {
		return m, nil
	}
	if !msg.resolution.OK() {
		if last, ok := m.ctrl.Log().Last(); ok {
			m.state.failed[last.ID] = true
		}
	}

	m.refreshViewport()
	return m, m.input.Focus()
}

// copyLastReply puts the most recent assistant message on the clipboard.
func (m Model) copyLastReply() Model {
	last, ok := m.ctrl.Log().LastFrom(model.OriginAssistant)
	if !ok {
		m.setNotice(noticeWarning, "No reply to copy yet.")
		return m
	}

	if err := m.writeClipboard(last.Content); err != nil {
		m.logger.Warn("clipboard write failed", "error", err)
		m.setNotice(noticeWarning, "Could not copy to clipboard.")
		return m
	}
	m.setNotice(noticeSuccess, fmt.Sprintf("Copied %q to clipboard.", last.Preview(32)))
	return m
}

func (m *Model) setNotice(kind noticeKind, text string) {
	m.noticeKind = kind
	m.notice = text
}

func (m *Model) clearNotice() {
	m.noticeKind = noticeNone
	m.notice = ""
}

// refreshViewport redraws the history and scrolls to the newest message.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}
