// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
package model

import (
	"time"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript holds the ordered message list of one conversation.
//
// The transcript keeps an explicit handle to the message currently
// receiving streamed content rather than re-deriving "is the last message
// an open assistant message" from array inspection. Only the message
// behind that handle may be mutated; every other message is immutable.
//
// A transcript is owned by the single surface that created it and must be
// mutated only from that surface's event loop.
type Transcript struct {
	// Identity
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages
	Messages []*Message `json:"messages"`

	// Open-message handle (nil when no stream is writing)
	open *Message
}

// NewTranscript creates an empty transcript with a generated ID.
func NewTranscript() *Transcript {
	now := time.Now()
	return &Transcript{
		ID:        "tr_" + generateMessageID()[4:],
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// APPEND OPERATIONS
// =============================================================================

// Append adds a closed message to the transcript.
func (t *Transcript) Append(msg *Message) {
	t.Messages = append(t.Messages, msg)
	t.UpdatedAt = time.Now()
}

// AppendUser creates and appends a user message.
func (t *Transcript) AppendUser(content string) *Message {
	msg := NewUserMessage(content)
	t.Append(msg)
	return msg
}

// AppendSystem creates and appends a system message.
func (t *Transcript) AppendSystem(content string) *Message {
	msg := NewSystemMessage(content)
	t.Append(msg)
	return msg
}

// =============================================================================
// OPEN MESSAGE HANDLE
// =============================================================================

// OpenAssistant appends a new assistant message open for streaming and
// points the open handle at it. Any previously open message is closed
// first so at most one message is ever appendable.
func (t *Transcript) OpenAssistant() *Message {
	t.CloseOpen()
	msg := NewAssistantMessage()
	t.Messages = append(t.Messages, msg)
	t.open = msg
	t.UpdatedAt = time.Now()
	return msg
}

// Open returns the message currently receiving streamed content, or nil.
func (t *Transcript) Open() *Message {
	return t.open
}

// HasOpen reports whether a message is currently open for streaming.
func (t *Transcript) HasOpen() bool {
	return t.open != nil
}

// AppendToOpen appends streamed text to the open message. No-op when no
// message is open.
func (t *Transcript) AppendToOpen(text string) {
	if t.open != nil {
		t.open.AppendText(text)
		t.UpdatedAt = time.Now()
	}
}

// CloseOpen finalizes the open message and clears the handle. Safe to
// call when nothing is open.
func (t *Transcript) CloseOpen() {
	if t.open != nil {
		t.open.Close()
		t.open = nil
		t.UpdatedAt = time.Now()
	}
}

// =============================================================================
// REMOVAL OPERATIONS
// =============================================================================

// RemoveLastUser removes the trailing user message, if the transcript
// ends with one. Used when a stream fails before any reply text arrived
// so the user is not left with an orphaned, unanswered turn.
func (t *Transcript) RemoveLastUser() bool {
	if len(t.Messages) == 0 {
		return false
	}
	last := t.Messages[len(t.Messages)-1]
	if last.Role != RoleUser {
		return false
	}
	t.Messages = t.Messages[:len(t.Messages)-1]
	t.UpdatedAt = time.Now()
	return true
}

// Remove removes a message by ID. The open message cannot be removed.
func (t *Transcript) Remove(id string) bool {
	for i, msg := range t.Messages {
		if msg.ID == id {
			if msg == t.open {
				return false
			}
			t.Messages = append(t.Messages[:i], t.Messages[i+1:]...)
			t.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Clear removes all messages. Idempotent: clearing an empty transcript
// leaves it empty.
func (t *Transcript) Clear() {
	t.Messages = make([]*Message, 0)
	t.open = nil
	t.UpdatedAt = time.Now()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Last returns the most recent message, or nil if empty.
func (t *Transcript) Last() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// LastAssistant returns the most recent assistant message, or nil.
func (t *Transcript) LastAssistant() *Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleAssistant {
			return t.Messages[i]
		}
	}
	return nil
}

// Get returns a message by ID, or nil.
func (t *Transcript) Get(id string) *Message {
	for _, msg := range t.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.Messages)
}

// IsEmpty returns true if there are no messages.
func (t *Transcript) IsEmpty() bool {
	return len(t.Messages) == 0
}
