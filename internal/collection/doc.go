// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package collection holds the shared chat and folder lists and the
// optimistic mutation engine that keeps them converged with the server.
//
// # Key Types
//
//   - Collection: the local view of chats and folders, keyed by ID
//   - Synchronizer: applies mutations optimistically, then confirms or
//     rolls back when the server answers
//   - Pending: one in-flight mutation with its rollback snapshot
//
// # Mutation Lifecycle
//
// Every mutation follows apply → confirm/reject:
//
//	p, err := sync.Rename("chat_1", "New title")  // applied immediately
//	...
//	sync.ConfirmItem(p, canonical)                // or sync.RejectItem(p)
//
// At most one mutation per (target, kind) is in flight. A second one
// supersedes the first: the newer optimistic value wins, the original
// pre-image is carried forward for rollback, and the superseded
// request's late outcome is ignored.
//
// The synchronizer performs no network calls; the surface dispatches the
// confirming request and feeds the outcome back on its event loop.
package collection
