// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the chat response stream into logical frames.
package stream

import (
	"bytes"
)

// =============================================================================
// DECODER CONSTANTS
// =============================================================================

// MaxFrameSize is the maximum allowed size for a single frame (64KB).
// A line exceeding this limit is dropped and counted as a decode error.
const MaxFrameSize = 64 * 1024

// framePrefix marks a line that carries a frame payload.
var framePrefix = []byte("data:")

// =============================================================================
// FRAME DECODER
// =============================================================================

// Decoder turns raw byte chunks, arriving at arbitrary boundaries, into
// complete frame payload strings.
//
// Chunks are accumulated byte-wise and split on the line terminator, so a
// multi-byte character split across two chunks is reassembled before any
// payload is emitted. The trailing partial line is carried over to the
// next chunk; Close flushes it when the channel ends.
//
// A Decoder is not rewindable. Create a new one per stream session.
type Decoder struct {
	carry   []byte
	dropped int
	closed  bool
}

// NewDecoder creates a decoder for one stream session.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Write feeds the next raw chunk to the decoder and returns the payloads
// of every frame completed by it, in arrival order.
func (d *Decoder) Write(chunk []byte) []string {
	if d.closed || len(chunk) == 0 {
		return nil
	}

	d.carry = append(d.carry, chunk...)

	var frames []string
	for {
		idx := bytes.IndexByte(d.carry, '\n')
		if idx < 0 {
			break
		}
		line := d.carry[:idx]
		d.carry = d.carry[idx+1:]

		if payload, ok := d.decodeLine(line); ok {
			frames = append(frames, payload)
		}
	}

	// Oversized partial line: drop it rather than grow without bound
	if len(d.carry) > MaxFrameSize {
		d.carry = nil
		d.dropped++
	}

	return frames
}

// Close signals that the channel has ended and flushes any trailing
// partial line as a final frame. Safe to call more than once.
func (d *Decoder) Close() []string {
	if d.closed {
		return nil
	}
	d.closed = true

	if len(d.carry) == 0 {
		return nil
	}
	line := d.carry
	d.carry = nil

	if payload, ok := d.decodeLine(line); ok {
		return []string{payload}
	}
	return nil
}

// Dropped returns the number of lines discarded for exceeding MaxFrameSize.
func (d *Decoder) Dropped() int {
	return d.dropped
}

// decodeLine extracts the payload from one complete line. Blank lines and
// lines without the frame prefix are discarded.
func (d *Decoder) decodeLine(line []byte) (string, bool) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return "", false
	}
	if !bytes.HasPrefix(line, framePrefix) {
		// Other SSE fields (event:, id:, retry:, comments) are ignored
		return "", false
	}

	payload := bytes.TrimPrefix(line, framePrefix)
	if len(payload) > 0 && payload[0] == ' ' {
		payload = payload[1:]
	}
	if len(payload) == 0 {
		return "", false
	}
	return string(payload), true
}
