// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jeranaias/simplechat/internal/cloud"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context) error {
	cloud.UserAgent = "simplechat/" + Version
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the simplechat command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "simplechat",
		Short: "Chat with an OpenAI-compatible model from the terminal",
		Long: `simplechat sends your messages to a chat-completion endpoint and shows the
replies as a single conversation. One request is in flight at a time; errors
are shown in the conversation and you can always send again.

Run without a command to start the chat.`,
		Example: `  # Start chatting (full-screen on a terminal, line mode otherwise)
  $ SIMPLECHAT_API_KEY=sk-... simplechat

  # Line mode with history editing
  $ simplechat chat --plain

  # One question, one answer
  $ simplechat ask "What is a goroutine?"

  # Write a config file template
  $ simplechat config init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, false)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.simplechat/config.toml)")
	flags.StringVar(&opts.model, "model", "", "model to request (overrides config and environment)")
	flags.StringVar(&opts.baseURL, "base-url", "", "completion API base URL (overrides config and environment)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newChatCommand(opts),
		newAskCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}
