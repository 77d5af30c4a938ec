// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the conversation log and its messages.
//
// # Key Types
//
//   - Message: Immutable value with ID, origin, content and timestamp
//   - Origin: Who wrote the message (user or assistant)
//   - ConversationLog: Ordered, append-only message history with copy-out snapshots
//
// # Usage
//
//	log := model.NewConversationLog()
//	log.Append(model.NewUserMessage("Hello"))
//	for _, msg := range log.Snapshot() {
//	    fmt.Printf("%s: %s\n", msg.Origin.DisplayName(), msg.Content)
//	}
package model
