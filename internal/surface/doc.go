// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package surface glues the conversation and collection state machines
// to a Bubble Tea event loop.
//
// The Controller is the single writer for a surface's state: turn
// submission, stream frames, and mutation outcomes all pass through its
// Update method as messages, so every transition is a plain
// (state, message) step on one goroutine. The only background work is
// the StreamRunner pump, which reads the response body and crosses back
// over as messages.
package surface
