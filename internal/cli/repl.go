// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/simplechat/internal/conversation"
)

// lineReader is the part of liner.State the prompt loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// lineChat is the line-oriented chat loop. Each line is submitted to the
// session; the loop waits for the reply before prompting again.
type lineChat struct {
	session *conversation.Session
	input   lineReader
	out     io.Writer
	styles  outputStyles
	render  func(string) string
}

const linePrompt = "you> "

// Run reads lines until EOF, Ctrl+C, "quit" or "exit".
func (c *lineChat) Run(ctx context.Context) error {
	for {
		line, err := c.input.Prompt(linePrompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(c.out)
				return nil
			}
			return err
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "quit") || strings.EqualFold(text, "exit") {
			return nil
		}
		c.input.AppendHistory(line)

		if err := c.send(ctx, line); err != nil {
			return err
		}
	}
}

// send submits one line and prints the reply.
func (c *lineChat) send(ctx context.Context, line string) error {
	result, err := c.session.Submit(ctx, line)
	if err != nil {
		return err
	}
	if !result.Admitted {
		fmt.Fprintln(c.out, c.styles.Muted.Render("(not sent: "+result.Reason.String()+")"))
		return nil
	}

	fmt.Fprintln(c.out, c.styles.Thinking.Render("Thinking..."))
	if err := c.session.WaitIdle(ctx); err != nil {
		return err
	}

	last, ok := c.session.Controller().Log().Last()
	if !ok {
		return nil
	}

	label := c.styles.Label.Render(last.Origin.DisplayName() + ":")
	if c.session.LastError() != nil {
		fmt.Fprintln(c.out, label, c.styles.Error.Render(last.Content))
		return nil
	}
	fmt.Fprintln(c.out, label)
	fmt.Fprintln(c.out, c.render(last.Content))
	return nil
}
