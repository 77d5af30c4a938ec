// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "sync"

// =============================================================================
// CONVERSATION LOG
// =============================================================================

// ConversationLog is the ordered, append-only history of a session.
//
// Insertion order is conversation order. Entries are never reordered,
// replaced or removed. The log is volatile; nothing is persisted.
//
// Writes are expected to come from a single owner, but reads may happen from
// any goroutine: Snapshot never observes a partially applied Append.
type ConversationLog struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversationLog creates an empty log.
func NewConversationLog() *ConversationLog {
	return &ConversationLog{
		messages: make([]Message, 0, 16),
	}
}

// Append adds msg to the end of the log. It always succeeds.
func (l *ConversationLog) Append(msg Message) {
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
}

// Snapshot returns a copy of the log in conversation order.
// The caller owns the returned slice.
func (l *ConversationLog) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// IsEmpty returns true if nothing has been appended yet.
func (l *ConversationLog) IsEmpty() bool {
	return l.Len() == 0
}

// Last returns the most recent message.
func (l *ConversationLog) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// LastFrom returns the most recent message with the given origin.
func (l *ConversationLog) LastFrom(origin Origin) (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].Origin == origin {
			return l.messages[i], true
		}
	}
	return Message{}, false
}
