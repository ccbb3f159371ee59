// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the chat response stream into logical frames.
package stream

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/chatsync/internal/model"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// Recognized event type discriminators. Unknown types must be ignored by
// consumers, never rejected: the server is free to add event kinds.
const (
	EventContent = "content"
	EventSources = "sources"
	EventDone    = "done"
	EventError   = "error"
)

// Event is one decoded frame payload.
type Event struct {
	// Type discriminates the event kind. See the Event* constants.
	Type string `json:"type"`

	// Content carries incremental reply text (type "content").
	Content string `json:"content,omitempty"`

	// Sources carries citation metadata (type "sources").
	Sources []model.Source `json:"sources,omitempty"`

	// Reason carries a machine-readable reason string (type "error").
	Reason string `json:"reason,omitempty"`
}

// IsKnown reports whether the event type is one this client understands.
func (e Event) IsKnown() bool {
	switch e.Type {
	case EventContent, EventSources, EventDone, EventError:
		return true
	}
	return false
}

// =============================================================================
// EVENT PARSING
// =============================================================================

// DecodeError is returned for a frame payload that is not valid event
// data. It is scoped to that single frame: the caller logs, skips, and
// continues the session.
type DecodeError struct {
	Payload string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed frame (%d bytes): %v", len(e.Payload), e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseEvent deserializes one frame payload into an Event.
func ParseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, &DecodeError{Payload: payload, Err: err}
	}
	if ev.Type == "" {
		return Event{}, &DecodeError{Payload: payload, Err: fmt.Errorf("missing type discriminator")}
	}
	return ev, nil
}
