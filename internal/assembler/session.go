// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assembler turns decoded stream frames into transcript mutations.
package assembler

import (
	"errors"

	"github.com/jeranaias/chatsync/internal/config"
	"github.com/jeranaias/chatsync/internal/model"
	"github.com/jeranaias/chatsync/internal/stream"
)

// =============================================================================
// PHASE TYPE
// =============================================================================

// Phase is the lifecycle state of one stream session.
type Phase string

const (
	// PhaseConnecting covers the window before the first recognized frame;
	// surfaces show a pending indicator, not a streaming one.
	PhaseConnecting Phase = "connecting"
	// PhaseReceiving begins with the first frame that carries content or
	// sources and flips the pending indicator to streaming.
	PhaseReceiving Phase = "receiving"
	// PhaseDone means the channel closed normally.
	PhaseDone Phase = "done"
	// PhaseFailed means the channel aborted.
	PhaseFailed Phase = "failed"
)

// IsTerminal reports whether the phase is done or failed.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// =============================================================================
// NOTICE TEXT
// =============================================================================

// FallbackReply is synthesized when the channel closes normally without a
// single reply frame, so the user is never left with an unanswered turn.
const FallbackReply = "Something went wrong and no reply was received. Please try again."

// InterruptionNotice is appended, clearly delimited, to a partial reply
// when the channel aborts mid-stream.
const InterruptionNotice = "\n\n--- response interrupted: the connection was lost before the reply finished ---"

// =============================================================================
// STREAM SESSION
// =============================================================================

// ErrSessionClosed is returned when frames arrive after the session
// reached a terminal phase.
var ErrSessionClosed = errors.New("assembler: session already closed")

// ErrTranscriptBusy is returned when a session is opened on a transcript
// that still has an open stream.
var ErrTranscriptBusy = errors.New("assembler: transcript has an open stream")

// Session assembles one submitted turn's response stream into transcript
// mutations. It is ephemeral: one session per turn, discarded after the
// terminal phase.
//
// Sessions are driven from the surface's event loop; frames must be
// applied in arrival order. Frames are not individually addressable, so
// out-of-order application is unsupported.
type Session struct {
	transcript *model.Transcript
	caps       config.Surface
	phase      Phase

	// decodeErrors counts malformed frames skipped during this session.
	decodeErrors int
}

// NewSession opens a stream session for a transcript. The transcript must
// not have another open stream: the submission layer enforces one turn at
// a time, this check is the backstop.
func NewSession(t *model.Transcript, caps config.Surface) (*Session, error) {
	if t.HasOpen() {
		return nil, ErrTranscriptBusy
	}
	return &Session{
		transcript: t,
		caps:       caps,
		phase:      PhaseConnecting,
	}, nil
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// DecodeErrors returns the number of malformed frames skipped so far.
func (s *Session) DecodeErrors() int {
	return s.decodeErrors
}

// Transcript returns the transcript this session mutates.
func (s *Session) Transcript() *model.Transcript {
	return s.transcript
}

// =============================================================================
// FRAME HANDLING
// =============================================================================

// HandleFrame applies one decoded frame payload to the transcript.
//
// A malformed payload is counted and skipped; it never fails the session.
// Unknown event types are ignored. The phase flips to receiving only on
// the first event that actually carries content or sources, so a
// zero-content keep-alive cannot flip the streaming indicator early.
func (s *Session) HandleFrame(payload string) error {
	if s.phase.IsTerminal() {
		return ErrSessionClosed
	}

	ev, err := stream.ParseEvent(payload)
	if err != nil {
		s.decodeErrors++
		return nil
	}

	switch ev.Type {
	case stream.EventContent:
		if ev.Content == "" {
			return nil
		}
		s.markReceiving()
		if !s.transcript.HasOpen() {
			s.transcript.OpenAssistant()
		}
		s.transcript.AppendToOpen(ev.Content)

	case stream.EventSources:
		if !s.caps.SupportsSources || len(ev.Sources) == 0 {
			return nil
		}
		s.markReceiving()
		// Sources open a fresh assistant message; any prior open message
		// is closed by OpenAssistant.
		msg := s.transcript.OpenAssistant()
		msg.SetSources(ev.Sources)

	case stream.EventDone:
		// Terminal marker on the wire; the channel close drives Finish.

	case stream.EventError:
		s.Fail(errors.New(ev.Reason))

	default:
		// Unknown event types are ignored, not rejected.
	}

	return nil
}

// markReceiving flips connecting → receiving exactly once.
func (s *Session) markReceiving() {
	if s.phase == PhaseConnecting {
		s.phase = PhaseReceiving
	}
}

// =============================================================================
// TERMINATION
// =============================================================================

// Finish completes the session after the channel closed normally. If no
// assistant message was ever created, a fallback reply is synthesized so
// the user's turn does not dangle unanswered.
func (s *Session) Finish() {
	if s.phase.IsTerminal() {
		return
	}

	if s.transcript.HasOpen() {
		s.transcript.CloseOpen()
	} else if s.transcript.LastAssistant() == nil || s.phase == PhaseConnecting {
		fallback := model.NewAssistantMessage()
		fallback.AppendText(FallbackReply)
		fallback.Close()
		s.transcript.Append(fallback)
	}

	s.phase = PhaseDone
}

// Fail terminates the session after a channel error. A partial reply is
// kept and annotated with the interruption notice; with no reply at all,
// the just-submitted user message is removed instead of leaving an
// orphaned turn.
func (s *Session) Fail(err error) {
	if s.phase.IsTerminal() {
		return
	}
	_ = err // reason is surfaced by the caller; the transcript records the notice

	if s.transcript.HasOpen() {
		s.transcript.AppendToOpen(InterruptionNotice)
		s.transcript.CloseOpen()
	} else {
		s.transcript.RemoveLastUser()
	}

	s.phase = PhaseFailed
}
