// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the chat-completion client for OpenAI-compatible endpoints.
//
// The client is deliberately small: one prompt in, one reply out, one attempt
// per call. Every failure is classified into a CompletionError so callers can
// present rate limiting differently from other failures.
//
// # Key Types
//
//   - Client: HTTP client for the chat completions endpoint
//   - ChatRequest: Request body (model, single user message, token cap)
//   - CompletionError: Classified failure (network, rate limited, server, malformed)
//
// # Usage
//
//	client := cloud.NewClient().WithModel("gpt-3.5-turbo")
//	reply, err := client.Complete(ctx, "Hello", apiKey)
//	switch {
//	case errors.Is(err, cloud.ErrRateLimited):
//	    // ask the user to wait
//	case err != nil:
//	    // surface the error
//	}
//
// # Security
//
// The credential is only ever placed in the Authorization header. It is never
// logged; use Fingerprint when a key has to be referenced. TLS 1.2 is the
// minimum protocol version.
package cloud
