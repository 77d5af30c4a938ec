// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/simplechat/internal/config"
	"github.com/jeranaias/simplechat/internal/conversation"
	"github.com/jeranaias/simplechat/internal/ui/chat"
	"github.com/jeranaias/simplechat/internal/ui/styles"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long: `Start an interactive chat.

On a terminal this opens the full-screen chat. With --plain, or when input or
output is redirected, a line-oriented prompt is used instead.`,
		Example: `  $ simplechat chat
  $ simplechat chat --plain
  $ printf 'hello\nquit\n' | simplechat chat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "use the line-oriented prompt instead of the full-screen chat")
	return cmd
}

func runChat(cmd *cobra.Command, opts *rootOptions, plain bool) error {
	a, err := opts.newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if plain || !interactive(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return runLineChat(cmd, a)
	}
	return runFullScreen(cmd, opts, a)
}

// =============================================================================
// FULL-SCREEN CHAT
// =============================================================================

func runFullScreen(cmd *cobra.Command, opts *rootOptions, a *app) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	changes := make(chan struct{}, 1)
	if path, exists, err := opts.configFile(); err == nil && exists {
		notify := func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		}
		if err := config.Watch(ctx, path, notify); err != nil {
			a.logger.Warn("config watch unavailable", "path", path, "error", err)
		}
	}

	m := chat.New(a.newController(), styles.NewTheme(a.cfg.UI.Theme), chat.Options{
		Host:          a.client.Host(),
		Model:         a.client.Model(),
		Markdown:      a.cfg.UI.Markdown,
		ConfigChanges: changes,
		Context:       ctx,
		Logger:        a.logger,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}

// =============================================================================
// LINE CHAT
// =============================================================================

func runLineChat(cmd *cobra.Command, a *app) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess := conversation.NewSession(a.newController())
	go sess.Run(ctx)

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	out := cmd.OutOrStdout()
	outStyles := newOutputStyles(out)
	fmt.Fprintln(out, outStyles.Muted.Render(fmt.Sprintf("%s · %s (type quit or press Ctrl+D to leave)", a.client.Host(), a.client.Model())))

	repl := &lineChat{
		session: sess,
		input:   line,
		out:     out,
		styles:  outStyles,
		render:  replyRenderer(a.cfg.UI, out, a.logger),
	}
	return repl.Run(ctx)
}
