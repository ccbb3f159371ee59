// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
package model

import (
	"testing"
)

// =============================================================================
// OPEN MESSAGE HANDLE TESTS
// =============================================================================

func TestTranscript_OpenAssistant(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("Hello")

	msg := tr.OpenAssistant()
	if !msg.IsOpen() {
		t.Error("OpenAssistant should return an open message")
	}
	if tr.Open() != msg {
		t.Error("Open handle should point at the new assistant message")
	}
	if tr.Len() != 2 {
		t.Errorf("Expected 2 messages, got %d", tr.Len())
	}
}

func TestTranscript_AppendToOpen(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("Hello")
	tr.OpenAssistant()

	tr.AppendToOpen("Hi")
	tr.AppendToOpen(" there")

	if got := tr.Open().DisplayContent(); got != "Hi there" {
		t.Errorf("DisplayContent() = %q, want %q", got, "Hi there")
	}

	tr.CloseOpen()
	if tr.HasOpen() {
		t.Error("CloseOpen should clear the open handle")
	}
	if got := tr.Last().Content; got != "Hi there" {
		t.Errorf("Content after close = %q, want %q", got, "Hi there")
	}
}

func TestTranscript_ClosedMessageIsImmutable(t *testing.T) {
	tr := NewTranscript()
	tr.OpenAssistant()
	tr.AppendToOpen("final")
	tr.CloseOpen()

	msg := tr.Last()
	msg.AppendText(" extra")
	if got := msg.DisplayContent(); got != "final" {
		t.Errorf("Closed message content changed: %q", got)
	}
}

func TestTranscript_OpenAssistantClosesPrevious(t *testing.T) {
	tr := NewTranscript()
	first := tr.OpenAssistant()
	tr.AppendToOpen("one")

	second := tr.OpenAssistant()
	if first.IsOpen() {
		t.Error("Previous open message should have been closed")
	}
	if first.Content != "one" {
		t.Errorf("Previous message content = %q, want %q", first.Content, "one")
	}
	if tr.Open() != second {
		t.Error("Open handle should point at the second message")
	}
}

func TestTranscript_AppendToOpenWithoutOpen(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("Hello")

	// Must not panic or mutate anything
	tr.AppendToOpen("stray")
	if tr.Last().Content != "Hello" {
		t.Error("AppendToOpen without an open message should be a no-op")
	}
}

// =============================================================================
// REMOVAL TESTS
// =============================================================================

func TestTranscript_RemoveLastUser(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("dangling")

	if !tr.RemoveLastUser() {
		t.Fatal("RemoveLastUser should succeed on a trailing user message")
	}
	if !tr.IsEmpty() {
		t.Error("Transcript should be empty after removal")
	}

	// Trailing assistant message: removal must refuse
	tr.AppendUser("q")
	tr.OpenAssistant()
	tr.CloseOpen()
	if tr.RemoveLastUser() {
		t.Error("RemoveLastUser should refuse when last message is not a user message")
	}
}

func TestTranscript_ClearIsIdempotent(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("one")
	tr.OpenAssistant()

	tr.Clear()
	if !tr.IsEmpty() || tr.HasOpen() {
		t.Error("Clear should empty the transcript and drop the open handle")
	}

	tr.Clear()
	if !tr.IsEmpty() {
		t.Error("Clearing twice should be equivalent to clearing once")
	}
}

func TestTranscript_RemoveOpenMessageRefused(t *testing.T) {
	tr := NewTranscript()
	msg := tr.OpenAssistant()

	if tr.Remove(msg.ID) {
		t.Error("Remove should refuse to remove the open message")
	}
}

// =============================================================================
// SEGMENTED CONTENT TESTS
// =============================================================================

func TestNewSegmentedUserMessage(t *testing.T) {
	msg := NewSegmentedUserMessage([]Segment{
		{Kind: SegmentText, Text: "see attached: "},
		{Kind: SegmentImage, Ref: "upload://img-1"},
		{Kind: SegmentText, Text: "thoughts?"},
	})

	if msg.Content != "see attached: thoughts?" {
		t.Errorf("Content = %q, want text segments joined", msg.Content)
	}
	if len(msg.Segments) != 3 {
		t.Errorf("Expected 3 segments, got %d", len(msg.Segments))
	}
}

// =============================================================================
// PREVIEW TESTS
// =============================================================================

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short content unchanged", "hello", 10, "hello"},
		{"long content truncated", "abcdefghij", 8, "abcde..."},
		{"unicode safe", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := NewUserMessage(tc.content)
			if got := msg.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}
