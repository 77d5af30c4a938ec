// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the conversation log and its messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/simplechat/internal/util"
)

// =============================================================================
// ORIGIN TYPE
// =============================================================================

// Origin records who authored a message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	return string(o)
}

// DisplayName returns a human-readable name for the origin.
func (o Origin) DisplayName() string {
	switch o {
	case OriginUser:
		return "You"
	case OriginAssistant:
		return "Assistant"
	default:
		return string(o)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in the conversation log.
//
// Messages are values: once created they are never modified, and the log only
// ever hands out copies.
type Message struct {
	ID        string    `json:"id"`
	Origin    Origin    `json:"origin"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(origin Origin, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Origin:    origin,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(OriginUser, content)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(OriginAssistant, content)
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Origin == OriginUser
}

// Preview returns the content on one line, cut to at most maxLen runes.
func (m Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.OneLine(m.Content), maxLen)
}
