// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package conversation implements the message-send lifecycle of a chat session.

A session is a two-state machine. While idle, user input that survives the
gate (non-empty after trimming) is appended to the log as a user message and
the machine moves to pending. While pending, every submission is rejected.
The outcome of the single in-flight request, success or any classified
failure, is appended as an assistant message and the machine returns to idle.

# Key Types

  - TryAdmit: Pure admission gate (trim, reject empty, reject while pending)
  - Controller: Owns the log and the state; Submit and Resolve are the only mutators
  - Request: Admitted submission; Run performs the network call off the loop
  - Session: Channel-driven loop for callers without an event loop
  - DescribeError: Human-readable rendering of a completion failure

# Usage

With an event loop (Bubble Tea), Submit in Update, Run in a tea.Cmd, and
Resolve when the resulting message comes back:

	req, _ := ctrl.Submit(input)
	if req != nil {
	    return m, func() tea.Msg { return resolvedMsg(req.Run(ctx)) }
	}

Without one, let a Session own the controller:

	sess := conversation.NewSession(ctrl)
	go sess.Run(ctx)
	if res, _ := sess.Submit(ctx, line); res.Admitted {
	    sess.WaitIdle(ctx)
	}
*/
package conversation
