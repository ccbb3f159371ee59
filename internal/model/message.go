// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// SOURCE TYPE
// =============================================================================

// Source is citation metadata attached to an assistant message, delivered
// on the stream's side channel. Order is significant and preserved.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// =============================================================================
// SEGMENT TYPE
// =============================================================================

// SegmentKind identifies the kind of a content segment.
type SegmentKind string

const (
	SegmentText  SegmentKind = "text"
	SegmentImage SegmentKind = "image"
	SegmentFile  SegmentKind = "file"
)

// Segment is one piece of segmented message content. Text segments carry
// the text inline; image and file segments carry a reference resolved by
// the upload collaborator.
type Segment struct {
	Kind SegmentKind `json:"kind"`
	Text string      `json:"text,omitempty"`
	Ref  string      `json:"ref,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a transcript.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content  string    `json:"content"`
	Segments []Segment `json:"segments,omitempty"`
	Sources  []Source  `json:"sources,omitempty"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	open          bool
	streamContent strings.Builder
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewSegmentedUserMessage creates a user message from content segments.
// The plain Content field is filled from the text segments so surfaces
// without segment support still render something sensible.
func NewSegmentedUserMessage(segments []Segment) *Message {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Kind == SegmentText {
			sb.WriteString(seg.Text)
		}
	}
	msg := NewMessage(RoleUser, sb.String())
	msg.Segments = segments
	return msg
}

// NewAssistantMessage creates a new assistant message open for streaming.
func NewAssistantMessage() *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		open:      true,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsOpen reports whether the message is still receiving streamed content.
func (m *Message) IsOpen() bool {
	return m.open
}

// AppendText appends streamed text to an open message. Appending to a
// closed message is a no-op: closed content is immutable.
func (m *Message) AppendText(text string) {
	if m.open {
		m.streamContent.WriteString(text)
	}
}

// SetSources attaches citation metadata to the message.
func (m *Message) SetSources(sources []Source) {
	m.Sources = sources
}

// Close finalizes a streaming message, merging streamed content into
// Content. Safe to call on an already-closed message.
func (m *Message) Close() {
	if !m.open {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.open = false
}

// DisplayContent returns the content to display (streaming or final).
func (m *Message) DisplayContent() string {
	if m.open {
		return m.streamContent.String()
	}
	return m.Content
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0 && len(m.Segments) == 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
