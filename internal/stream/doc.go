// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the chat service's response stream.
//
// The wire format is a sequence of newline-delimited frames; payload
// frames carry a "data:" prefix followed by a JSON event. Network chunks
// split frames at arbitrary byte positions, so the Decoder keeps a carry
// buffer and only emits complete lines:
//
//	dec := stream.NewDecoder()
//	for chunk := range chunks {
//		for _, payload := range dec.Write(chunk) {
//			ev, err := stream.ParseEvent(payload)
//			...
//		}
//	}
//	dec.Close()
//
// Decoding is split-invariant: any chunking of the same byte sequence
// yields the same frames in the same order.
package stream
