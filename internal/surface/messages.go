// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package surface glues the conversation and collection state machines
// to a Bubble Tea event loop. Each surface owns its transcripts and
// session; the collection is shared through the synchronizer.
package surface

import (
	"github.com/jeranaias/chatsync/internal/collection"
	"github.com/jeranaias/chatsync/internal/transport"
)

// =============================================================================
// STREAM MESSAGES
// =============================================================================

// StreamFramesMsg delivers the frame payloads decoded from one network
// chunk, in arrival order.
type StreamFramesMsg struct {
	Payloads []string
}

// StreamDoneMsg signals that the response channel closed normally.
type StreamDoneMsg struct{}

// StreamErrorMsg signals that the response channel aborted.
type StreamErrorMsg struct {
	Err error
}

// =============================================================================
// COLLECTION MESSAGES
// =============================================================================

// CollectionLoadedMsg delivers the startup snapshot that seeds the
// collection.
type CollectionLoadedMsg struct {
	Snapshot *transport.Snapshot
	Err      error
}

// ItemConfirmedMsg reports server success for an item mutation.
// Canonical is non-nil when the server returned the stored record.
type ItemConfirmedMsg struct {
	Pending   *collection.Pending[collection.Item]
	Canonical *collection.Item
}

// ItemRejectedMsg reports server failure for an item mutation; the
// optimistic change is rolled back.
type ItemRejectedMsg struct {
	Pending *collection.Pending[collection.Item]
	Err     error
}

// FolderConfirmedMsg reports server success for a folder mutation.
type FolderConfirmedMsg struct {
	Pending   *collection.Pending[collection.Folder]
	Canonical *collection.Folder
}

// FolderRejectedMsg reports server failure for a folder mutation.
type FolderRejectedMsg struct {
	Pending *collection.Pending[collection.Folder]
	Err     error
}
