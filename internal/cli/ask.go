// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// maxStdinPrompt caps a prompt read from standard input.
const maxStdinPrompt = 1 << 20

var (
	// errNoPrompt is returned when ask has nothing to send.
	errNoPrompt = errors.New("nothing to ask: pass a prompt as arguments or on standard input")

	// errPromptTooLarge is returned when standard input exceeds maxStdinPrompt.
	errPromptTooLarge = fmt.Errorf("prompt on standard input exceeds %d bytes", maxStdinPrompt)
)

func newAskCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send one prompt and print the reply",
		Long: `Send one prompt and print the reply.

The prompt is the arguments joined by spaces, or standard input when no
arguments are given. The reply is rendered as markdown on a terminal. The
exit status is 1 when the request failed.`,
		Example: `  $ simplechat ask "Explain channels in one paragraph"
  $ git diff | simplechat ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, args)
		},
	}
}

func runAsk(cmd *cobra.Command, opts *rootOptions, args []string) error {
	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	a, err := opts.newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// A single submission needs no event loop: this goroutine coordinates.
	ctrl := a.newController()
	req, admitted := ctrl.Submit(prompt)
	if !admitted.Admitted {
		return errNoPrompt
	}
	res := req.Run(cmd.Context())
	ctrl.Resolve(res)

	reply, ok := ctrl.Log().Last()
	if !ok {
		return errors.New("no reply recorded")
	}

	if !res.OK() {
		errStyles := newOutputStyles(cmd.ErrOrStderr())
		fmt.Fprintln(cmd.ErrOrStderr(), errStyles.Error.Render(reply.Content))
		return &ExitError{Code: 1}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, replyRenderer(a.cfg.UI, out, a.logger)(reply.Content))
	return nil
}

// readPrompt joins args, or reads stdin when there are none and it is not a
// terminal.
func readPrompt(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if isTerminal(in) {
		return "", errNoPrompt
	}

	data, err := io.ReadAll(io.LimitReader(in, maxStdinPrompt+1))
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	if len(data) > maxStdinPrompt {
		return "", errPromptTooLarge
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errNoPrompt
	}
	return string(data), nil
}
