// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package surface glues the conversation and collection state machines
// to a Bubble Tea event loop. Each surface owns its transcripts and
// session; the collection is shared through the synchronizer.
package surface

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatsync/internal/stream"
)

// =============================================================================
// STREAM RUNNER
// =============================================================================

// readChunkSize is the network read size fed to the frame decoder. The
// decoder tolerates any split, so the size only affects batching.
const readChunkSize = 4096

// StreamRunner pumps a response body through the frame decoder in a
// goroutine and hands the results to the event loop as messages. The
// goroutine never touches transcript state: frames cross over as
// StreamFramesMsg and are applied by the Update loop in arrival order.
type StreamRunner struct {
	body io.ReadCloser
	msgs chan tea.Msg
}

// NewStreamRunner wraps a turn response body.
func NewStreamRunner(body io.ReadCloser) *StreamRunner {
	return &StreamRunner{
		body: body,
		msgs: make(chan tea.Msg, 8),
	}
}

// Start launches the pump goroutine and returns the command that waits
// for its first message.
func (r *StreamRunner) Start() tea.Cmd {
	go r.pump()
	return r.Next()
}

// Next returns a command that waits for the pump's next message. The
// Update loop re-arms it after every StreamFramesMsg; the channel is
// closed after the terminal message, at which point Next yields nil
// messages and the loop stops re-arming.
func (r *StreamRunner) Next() tea.Cmd {
	return func() tea.Msg {
		return <-r.msgs
	}
}

// pump reads the body to completion, decoding frames chunk by chunk.
// Exactly one terminal message (done or error) is emitted.
func (r *StreamRunner) pump() {
	defer r.body.Close()
	defer close(r.msgs)

	dec := stream.NewDecoder()
	buf := make([]byte, readChunkSize)

	for {
		n, err := r.body.Read(buf)
		if n > 0 {
			if frames := dec.Write(buf[:n]); len(frames) > 0 {
				r.msgs <- StreamFramesMsg{Payloads: frames}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if frames := dec.Close(); len(frames) > 0 {
					r.msgs <- StreamFramesMsg{Payloads: frames}
				}
				r.msgs <- StreamDoneMsg{}
			} else {
				r.msgs <- StreamErrorMsg{Err: err}
			}
			return
		}
	}
}
